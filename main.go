package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/SantiagoArteche/ober-api/handlers"
	"github.com/SantiagoArteche/ober-api/logging"
	"github.com/SantiagoArteche/ober-api/middleware"
	"github.com/SantiagoArteche/ober-api/repositories"
	"github.com/SantiagoArteche/ober-api/services"
	"github.com/SantiagoArteche/ober-api/utils"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := logging.Init()

	logger.Info("Event ID: SERVICE_START, Description: Starting ober-api...")
	if err := godotenv.Load(".env"); err != nil {
		logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoDBName == "" {
		mongoDBName = "ober-api"
	}
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatalf("Event ID: CONFIG_ERROR, Description: JWT_SECRET is not set in the environment variables.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)

	userRepo := repositories.NewMongoUserRepository(db)
	projectRepo := repositories.NewMongoProjectRepository(db)
	taskRepo := repositories.NewMongoTaskRepository(db)
	txRunner := repositories.NewMongoTxRunner(client)

	jwtService := services.NewJWTService(jwtSecret)
	captcha := utils.NewCaptchaVerifier(os.Getenv("RECAPTCHA_SECRET"), logger)
	membership := services.NewMembershipService(projectRepo)

	userService := services.NewUserService(userRepo, jwtService, captcha, logger)
	projectService := services.NewProjectService(projectRepo, taskRepo, userRepo, txRunner, logger)
	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, membership, txRunner, logger)

	authHandler := handlers.NewAuthHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := mux.NewRouter()

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/new-user", authHandler.CreateUser).Methods(http.MethodPost)
	auth.HandleFunc("/login", authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/logout/{token}", authHandler.Logout).Methods(http.MethodGet)
	auth.HandleFunc("/delete-user/{id}", authHandler.DeleteUser).Methods(http.MethodDelete)

	protect := middleware.JWTAuth(jwtService, logger)

	projects := r.PathPrefix("/api/projects").Subrouter()
	projects.Use(protect)
	projects.HandleFunc("", projectHandler.GetAllProjects).Methods(http.MethodGet)
	projects.HandleFunc("", projectHandler.CreateProject).Methods(http.MethodPost)
	projects.HandleFunc("/{id}", projectHandler.GetProjectByID).Methods(http.MethodGet)
	projects.HandleFunc("/{id}", projectHandler.UpdateProject).Methods(http.MethodPut)
	projects.HandleFunc("/{projectId}/user/{userId}", projectHandler.AssignUserToProject).Methods(http.MethodPut)
	projects.HandleFunc("/{id}", projectHandler.DeleteProject).Methods(http.MethodDelete)

	tasks := r.PathPrefix("/api/tasks").Subrouter()
	tasks.Use(protect)
	tasks.HandleFunc("", taskHandler.GetAllTasks).Methods(http.MethodGet)
	tasks.HandleFunc("", taskHandler.CreateTask).Methods(http.MethodPost)
	tasks.HandleFunc("/name/{name}", taskHandler.GetTasksByName).Methods(http.MethodGet)
	tasks.HandleFunc("/description/{description}", taskHandler.GetTasksByDescription).Methods(http.MethodGet)
	tasks.HandleFunc("/state/{id}", taskHandler.ChangeTaskState).Methods(http.MethodPut)
	tasks.HandleFunc("/{taskId}/user/{userId}", taskHandler.AssignTaskToUser).Methods(http.MethodPut)
	tasks.HandleFunc("/{id}", taskHandler.GetTaskByID).Methods(http.MethodGet)
	tasks.HandleFunc("/{id}", taskHandler.UpdateTask).Methods(http.MethodPut)
	tasks.HandleFunc("/{id}", taskHandler.DeleteTask).Methods(http.MethodDelete)

	corsRouter := middleware.CORS(r)

	serverPort := os.Getenv("PORT")
	if serverPort == "" {
		serverPort = "8000"
	}
	serverAddress := fmt.Sprintf(":%s", serverPort)
	logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
