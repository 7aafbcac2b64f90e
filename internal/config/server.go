package config

import (
	"ProctorGolang/database/postgres"
	analysisHandler "ProctorGolang/internal/api/analysis/handler"
	analysisService "ProctorGolang/internal/api/analysis/service"
	monitoringHandler "ProctorGolang/internal/api/monitoring/handler"
	monitoringRepository "ProctorGolang/internal/api/monitoring/repository"
	monitoringService "ProctorGolang/internal/api/monitoring/service"
	"ProctorGolang/internal/middleware"
	"ProctorGolang/pkg/redis"
	"ProctorGolang/pkg/s3"
	"ProctorGolang/pkg/smtp"
	"ProctorGolang/pkg/utils"
	"ProctorGolang/pkg/vision"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	db               *sqlx.DB
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	handlers         []handler
	redisServer      redis.IRedis
	smtpMailer       smtp.ItfSmtp
	s3Client         s3.ItfS3
	landmarkProvider vision.ILandmarkProvider
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}
		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithSMTPMailer(smtpMailer smtp.ItfSmtp) ServerOption {
	return func(s *Server) error {
		s.smtpMailer = smtpMailer
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log)
		return nil
	}
}

func WithS3Client() ServerOption {
	return func(s *Server) error {
		client, err := s3.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to initialize S3 client: %v", err)
			}
			return fmt.Errorf("failed to create S3 client: %w", err)
		}
		s.s3Client = client
		return nil
	}
}

func WithLandmarkProvider() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before landmark provider")
		}
		s.landmarkProvider = vision.NewLandmarkProvider(s.log)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Monitoring Domain
	monitoringRepo := monitoringRepository.New(s.db, s.log)
	monitoringServices := monitoringService.New(s.log, monitoringRepo, s.redisServer, s.smtpMailer, s.s3Client, s.utils)
	monitoringHandlers := monitoringHandler.New(s.log, monitoringServices, s.validator, s.middleware)

	// Frame Analysis
	analysisServices := analysisService.New(s.log, s.landmarkProvider)
	analysisHandlers := analysisHandler.New(s.log, s.validator, s.middleware, analysisServices, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, monitoringHandlers, analysisHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	s.engine.Use(s.middleware.NewRequestIDMiddleware())

	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	if err := s.engine.Listen(fmt.Sprintf(":%s", port)); err != nil {
		if s.landmarkProvider != nil {
			s.landmarkProvider.Close()
		}
		return err
	}

	return nil
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
