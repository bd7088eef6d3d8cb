package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/hivedesk/hivedesk/internal/api"
	"github.com/hivedesk/hivedesk/internal/config"
	"github.com/hivedesk/hivedesk/internal/db"
	"github.com/hivedesk/hivedesk/internal/middleware"
	"github.com/hivedesk/hivedesk/internal/models"
	"github.com/hivedesk/hivedesk/internal/notify"
	"github.com/hivedesk/hivedesk/internal/observ"
	"github.com/hivedesk/hivedesk/internal/provision"
	"github.com/hivedesk/hivedesk/internal/repository/postgres"
	"github.com/hivedesk/hivedesk/internal/workflows"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()

	// Startup has no parent deadline; take as long as connecting takes.
	ctx := context.Background()

	database, err := db.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	broker, err := notify.NewBroker(ctx, cfg.RedisURL, logger)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer broker.Close()

	pool := database.Pool()
	userRepo := postgres.NewUserStore(pool)
	communityRepo := postgres.NewCommunityStore(pool)
	taskRepo := postgres.NewTaskStore(pool)
	issueRepo := postgres.NewIssueStore(pool)
	announcementRepo := postgres.NewAnnouncementStore(pool)
	checkInRepo := postgres.NewCheckInStore(pool)
	feedRepo := postgres.NewFeedStore(pool)
	awardRepo := postgres.NewAwardStore(pool)

	promotion := workflows.NewPromotion(userRepo, communityRepo, announcementRepo, logger)
	assignment := workflows.NewAssignment(taskRepo, announcementRepo, logger)
	provisioner := provision.NewClient(cfg.ProvisionerURL)

	authHandler := api.NewAuthHandler(userRepo, cfg.JWTSecret, logger)
	userHandler := api.NewUserHandler(userRepo, provisioner, logger)
	communityHandler := api.NewCommunityHandler(communityRepo, userRepo, promotion, broker, logger)
	taskHandler := api.NewTaskHandler(taskRepo, communityRepo, assignment, broker, logger)
	issueHandler := api.NewIssueHandler(issueRepo, logger)
	announcementHandler := api.NewAnnouncementHandler(announcementRepo, broker, logger)
	checkInHandler := api.NewCheckInHandler(checkInRepo, logger)
	feedHandler := api.NewFeedHandler(feedRepo, communityRepo, broker, logger)
	awardHandler := api.NewAwardHandler(awardRepo, userRepo, logger)
	streamHandler := api.NewStreamHandler(broker, communityRepo, logger)

	srv := gin.New()
	srv.Use(gin.Logger(), gin.Recovery())

	// Public: health for the load balancer, setup and login for bootstrap.
	srv.GET("/v1/health", func(c *gin.Context) {
		if err := database.Health(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})
	srv.POST("/v1/auth/setup", authHandler.Setup)
	srv.POST("/v1/auth/login", authHandler.Login)

	v1 := srv.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	admin := middleware.RequireRole(models.RoleAdmin)
	adminOrLead := middleware.RequireRole(models.RoleAdmin, models.RoleProjectLead)

	// Directory.
	v1.GET("/users", admin, userHandler.List)
	v1.POST("/users", admin, userHandler.Provision)
	v1.POST("/users/:id/role/toggle", admin, userHandler.ToggleRole)

	// Communities and membership.
	v1.GET("/communities", communityHandler.List)
	v1.POST("/communities", admin, communityHandler.Create)
	v1.GET("/communities/:id", communityHandler.GetByID)
	v1.DELETE("/communities/:id", admin, communityHandler.Delete)
	v1.POST("/communities/:id/members", admin, communityHandler.AddMember)
	v1.DELETE("/communities/:id/members/:userID", admin, communityHandler.RemoveMember)
	v1.POST("/communities/:id/lead", admin, communityHandler.SetLead)
	v1.DELETE("/communities/:id/lead", admin, communityHandler.RemoveLead)

	// Task board. Create enforces "this community's lead" itself; the route
	// gate only rules out plain employees assigning.
	v1.GET("/communities/:id/tasks", taskHandler.ListByCommunity)
	v1.POST("/communities/:id/tasks", adminOrLead, taskHandler.Create)
	v1.PATCH("/communities/:id/tasks/:taskID/status", taskHandler.UpdateStatus)
	v1.DELETE("/communities/:id/tasks/:taskID", adminOrLead, taskHandler.Delete)

	// Community feed.
	v1.GET("/communities/:id/feed", feedHandler.List)
	v1.POST("/communities/:id/feed", feedHandler.Post)
	v1.DELETE("/communities/:id/feed/:messageID", admin, feedHandler.Delete)

	// Announcements.
	v1.GET("/announcements", announcementHandler.List)
	v1.POST("/announcements", adminOrLead, announcementHandler.Post)
	v1.DELETE("/announcements/:id", admin, announcementHandler.Delete)

	// Anonymous issue ledger. Submit and lookup are open to everyone
	// authenticated; review is admin-only.
	v1.POST("/issues", issueHandler.Submit)
	v1.GET("/issues/:caseID", issueHandler.Lookup)
	v1.GET("/issues", admin, issueHandler.List)
	v1.POST("/issues/:caseID/response", admin, issueHandler.Respond)

	// Employee of the month.
	v1.PUT("/awards", admin, awardHandler.Save)
	v1.GET("/awards/current", awardHandler.Current)
	v1.GET("/awards", awardHandler.History)

	// Per-user views.
	v1.GET("/me/tasks", taskHandler.MyTasks)
	v1.GET("/me/announcements", announcementHandler.Personal)
	v1.GET("/me/checkins/today", checkInHandler.Today)
	v1.POST("/me/checkins", checkInHandler.Submit)
	v1.GET("/me/checkins", checkInHandler.Recent)

	// Live streams (websocket upgrades).
	v1.GET("/stream/announcements", streamHandler.Announcements)
	v1.GET("/stream/communities/:id/feed", streamHandler.Feed)

	logger.Info("starting HiveDesk",
		zap.String("port", cfg.Port),
		zap.String("env", cfg.Env),
	)

	return srv.Run(":" + cfg.Port)
}
