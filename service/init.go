/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移以及清洗服务依赖的装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 加载设置 -> 连接数据库 -> 迁移 -> 指标/事件/锁/调度器/清洗服务 -> 启动调度
 * @rules 确保所有依赖服务正常启动后才提供API服务；外部组件未配置时降级为本地实现
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres, gorm.io/driver/sqlite
 * @refs cmd/serve.go, service/cleaning
 */

package service

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"datahub-cleanser/service/cleaning"
	"datahub-cleanser/service/cleanup"
	"datahub-cleanser/service/config"
	"datahub-cleanser/service/distributed_lock"
	"datahub-cleanser/service/event"
	"datahub-cleanser/service/models"
	"datahub-cleanser/service/monitoring"
	"datahub-cleanser/service/rate_limiter"
	"datahub-cleanser/service/scheduler"
)

var (
	DB                     *gorm.DB
	GlobalSettings         *config.Settings
	GlobalMetrics          *monitoring.MetricsCollector
	GlobalEventService     *event.EventService
	GlobalSchedulerService *scheduler.SchedulerService
	GlobalCleaningService  *cleaning.Service
	GlobalHealthChecker    *monitoring.HealthChecker
	GlobalRetentionService *cleanup.RunRetentionService
	GlobalRateLimiter      rate_limiter.Limiter
)

// Init 初始化全部服务，由 serve 命令在启动HTTP服务前调用
func Init(settings *config.Settings) error {
	GlobalSettings = settings

	db, err := OpenDatabase(settings)
	if err != nil {
		return err
	}
	DB = db

	if err := runMigrations(DB); err != nil {
		return err
	}

	return initServices(settings)
}

// OpenDatabase 打开运行记录库，配置了 PostgreSQL 时优先使用，否则使用本地 SQLite 文件
func OpenDatabase(settings *config.Settings) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	if settings.UsePostgres() {
		db, err := gorm.Open(postgres.Open(settings.PostgresDSN()), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("数据库连接失败: %w", err)
		}
		log.Println("数据库连接成功 (postgres)")
		return db, nil
	}

	if dir := filepath.Dir(settings.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("创建数据库目录失败: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(settings.SQLitePath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	log.Printf("数据库连接成功 (sqlite: %s)", settings.SQLitePath)
	return db, nil
}

// runMigrations 运行数据库迁移
func runMigrations(db *gorm.DB) error {
	log.Println("开始运行数据库迁移...")

	if err := Migrate(db); err != nil {
		return fmt.Errorf("数据库迁移失败: %w", err)
	}

	log.Println("数据库表结构迁移完成")
	return nil
}

// Migrate 迁移运行记录与定时任务表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.CleaningRun{}, &models.CleaningJob{})
}

// initServices 初始化服务
func initServices(settings *config.Settings) error {
	GlobalMetrics = monitoring.NewMetricsCollector(prometheus.DefaultRegisterer)
	GlobalHealthChecker = monitoring.NewHealthChecker(DB)
	GlobalEventService = event.NewEventService(initPublishers(settings)...)

	var lock distributed_lock.DistributedLock = distributed_lock.NewLocalLock()
	GlobalRateLimiter = rate_limiter.NewLocalRateLimiter()
	if settings.UseRedis() {
		redisLock, err := distributed_lock.NewRedisLock(settings.RedisAddr(), settings.RedisPassword, settings.RedisDB)
		if err != nil {
			log.Printf("Redis不可用，使用进程内锁: %v", err)
		} else {
			lock = redisLock
			GlobalHealthChecker.AddCheck("redis", redisLock.Ping)
		}

		if settings.RunRateLimit > 0 {
			redisLimiter, err := rate_limiter.NewRedisRateLimiter(settings.RedisAddr(), settings.RedisPassword, settings.RedisDB)
			if err != nil {
				log.Printf("Redis不可用，使用进程内限流: %v", err)
			} else {
				GlobalRateLimiter = redisLimiter
			}
		}
	}

	GlobalCleaningService = cleaning.NewService(DB, cleaning.Options{
		DefaultConfigPath:  settings.DefaultConfigPath,
		DataRoot:           settings.DataRoot,
		AllowInlineScripts: settings.AllowInlineScripts,
		Metrics:            GlobalMetrics,
		Events:             GlobalEventService,
		Lock:               lock,
	})

	// 初始化调度器服务
	GlobalSchedulerService = scheduler.NewSchedulerService(GlobalCleaningService)
	GlobalCleaningService.SetScheduler(GlobalSchedulerService)

	// 启动调度器
	if err := GlobalSchedulerService.Start(GlobalCleaningService); err != nil {
		log.Printf("启动调度器服务失败: %v", err)
	}

	// 运行记录定期清理
	GlobalRetentionService = cleanup.NewRunRetentionService(DB, settings.RunRetentionDays)
	GlobalRetentionService.SetLock(lock)
	if err := GlobalRetentionService.StartScheduledCleanup(cleanup.DefaultSchedule); err != nil {
		log.Printf("启动运行记录清理失败: %v", err)
	}
	log.Println("服务初始化完成")
	return nil
}

// initPublishers 按配置创建事件发布器，未配置的通道不启用
func initPublishers(settings *config.Settings) []event.Publisher {
	var publishers []event.Publisher

	if len(settings.KafkaBrokers) > 0 {
		publishers = append(publishers, event.NewKafkaPublisher(settings.KafkaBrokers, settings.KafkaTopic))
		log.Printf("Kafka事件发布已启用: topic=%s", settings.KafkaTopic)
	}

	if settings.MQTTBroker != "" {
		mqttPublisher, err := event.NewMQTTPublisher(settings.MQTTBroker, settings.MQTTClientID, settings.MQTTTopic)
		if err != nil {
			log.Printf("MQTT连接失败，跳过MQTT事件发布: %v", err)
		} else {
			publishers = append(publishers, mqttPublisher)
			log.Printf("MQTT事件发布已启用: topic=%s", settings.MQTTTopic)
		}
	}

	return publishers
}

// Shutdown 停止调度器并关闭事件通道与数据库连接
func Shutdown() {
	if GlobalSchedulerService != nil {
		GlobalSchedulerService.Stop()
	}
	if GlobalRetentionService != nil {
		GlobalRetentionService.StopScheduledCleanup()
	}
	if closer, ok := GlobalRateLimiter.(*rate_limiter.RedisRateLimiter); ok {
		closer.Close()
	}
	if GlobalEventService != nil {
		GlobalEventService.Stop()
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
