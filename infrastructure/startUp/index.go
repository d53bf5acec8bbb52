package startup

import (
	"context"
	"errors"
	"time"

	"facegate.io/application/repository"
	"facegate.io/application/services/antispoof"
	"facegate.io/application/services/audit"
	"facegate.io/application/services/backupcode"
	"facegate.io/application/services/facematch"
	"facegate.io/application/services/lockout"
	"facegate.io/application/services/notification"
	auth_usecases "facegate.io/application/usecases/auth"
	"facegate.io/entities"
	"facegate.io/infrastructure/auth"
	"facegate.io/infrastructure/biometric/local"
	"facegate.io/infrastructure/biometric/remote"
	"facegate.io/infrastructure/cryptography"
	"facegate.io/infrastructure/database/connection/cache"
	cacherepo "facegate.io/infrastructure/database/repository/cache"
	"facegate.io/infrastructure/env"
	"facegate.io/infrastructure/ipresolver/maxmind"
	iptypes "facegate.io/infrastructure/ipresolver/types"
	"facegate.io/infrastructure/logger"
	messagequeue "facegate.io/infrastructure/message_queue"
	asynqbroker "facegate.io/infrastructure/message_queue/asynq"
	queue_tasks "facegate.io/infrastructure/message_queue/tasks"
	"facegate.io/infrastructure/messaging/emails"
	"github.com/matthewhartstonge/argon2"
)

// Services is everything the HTTP layer needs, built from one Config.
type Services struct {
	Config   *env.Config
	Stores   *repository.Stores
	Auth     *auth_usecases.Service
	Faces    *facematch.Engine
	Resolver iptypes.IPResolver

	cleanups []func()
}

// Used to start services such as loggers, databases, queues, etc.
func StartServices(ctx context.Context, config *env.Config) (*Services, error) {
	logger.InitializeLogger()
	services := &Services{Config: config}

	stores, err := repository.Open(ctx, config.StoreDriver, config.DBURL, config.DBName)
	if err != nil {
		return nil, err
	}
	services.Stores = stores
	services.cleanups = append(services.cleanups, func() {
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		stores.Close(shutdown)
	})

	var (
		emitter  audit.Emitter = audit.Multi{audit.LogEmitter{}, audit.StoreEmitter{Store: stores.AuditEvents}}
		notifier auth_usecases.LockNotifier
		limiter  backupcode.RateLimiter
		health   remote.HealthCache
	)
	if config.RedisAddr != "" {
		if err := cache.ConnectToCache(config.RedisAddr, config.RedisPassword); err != nil {
			services.CleanUp()
			return nil, err
		}
		services.cleanups = append(services.cleanups, func() { cache.Client.Close() })
		redisRepo := &cacherepo.RedisRepository{Client: cache.Client}
		limiter = cacherepo.NewBackupCodeLimiter(redisRepo, config.BackupCodeLimit, config.BackupCodeWindow)
		health = redisRepo

		broker := asynqbroker.NewAsynqBroker(config.RedisAddr, config.RedisPassword)
		broker.Handle(queue_tasks.HandleEmailDeliveryTaskName, queue_tasks.HandleEmailDeliveryTask(emailSender(config)))
		broker.Handle(audit.AuditEventTaskName, queue_tasks.HandleAuditEventTask(stores.AuditEvents))
		messagequeue.TaskQueue = broker
		services.cleanups = append(services.cleanups, broker.Shutdown)

		emitter = audit.Multi{audit.LogEmitter{}, audit.NewQueueEmitter(broker)}
		notifier = &notification.LockNotifier{Broker: broker}
	} else {
		logger.Warning("REDIS_ADDR not set, audit events are written inline and lock emails are not sent")
	}

	hasher := cryptography.NewArgonHasher(argon2.DefaultConfig())
	cipher, err := cryptography.NewAESCipher(config.EncKey)
	if err != nil {
		services.CleanUp()
		return nil, err
	}

	machine := lockout.New(stores.AttemptCounters, emitter,
		lockout.WithAccountStatus(stores.Accounts),
		lockout.WithPolicy(entities.FaceChannel, lockout.Policy{MaxAttempts: config.FaceMaxAttempts, LockoutDuration: config.FaceLockoutDuration}),
		lockout.WithPolicy(entities.PasswordChannel, lockout.Policy{MaxAttempts: config.PasswordMaxAttempts, LockoutDuration: config.PasswordLockoutWindow}),
	)

	engine, err := services.faceEngine(stores, health)
	if err != nil {
		services.CleanUp()
		return nil, err
	}
	services.Faces = engine

	managerOpts := []backupcode.Option{}
	if limiter != nil {
		managerOpts = append(managerOpts, backupcode.WithRateLimiter(limiter))
	}
	manager, err := backupcode.NewManager(stores.BackupCodes, hasher, cipher, machine, emitter, managerOpts...)
	if err != nil {
		services.CleanUp()
		return nil, err
	}

	service, err := auth_usecases.New(auth_usecases.Dependencies{
		Accounts:     stores.Accounts,
		FaceProfiles: stores.FaceProfiles,
		AuditLog:     stores.AuditEvents,
		Passwords:    hasher,
		Lockout:      machine,
		Faces:        engine,
		BackupCodes:  manager,
		Tokens:       auth.NewTokenService(config.JWTSigningKey, config.JWTIssuer, config.PendingTTL, config.SessionTTL),
		Emitter:      emitter,
		Notifier:     notifier,
	})
	if err != nil {
		services.CleanUp()
		return nil, err
	}
	services.Auth = service

	if err := service.BootstrapAdmin(ctx, config.BootstrapAdminUsername, config.BootstrapAdminPassword); err != nil {
		services.CleanUp()
		return nil, err
	}

	if config.MaxmindDBPath != "" {
		resolver, err := maxmind.Open(config.MaxmindDBPath)
		if err != nil {
			logger.Warning("continuing without ip geolocation", logger.LoggerOptions{
				Key:  "error",
				Data: err,
			})
		} else {
			services.Resolver = resolver
			services.cleanups = append(services.cleanups, func() { resolver.Close() })
		}
	}
	return services, nil
}

func (s *Services) faceEngine(stores *repository.Stores, health remote.HealthCache) (*facematch.Engine, error) {
	config := s.Config
	var primary, secondary facematch.Backend
	if config.FaceServiceURL != "" {
		opts := []remote.Option{}
		if health != nil {
			opts = append(opts, remote.WithSharedHealth(health))
		}
		primary = remote.NewFaceService(config.FaceServiceURL, config.FaceServiceTimeout, opts...)
	}
	localService, err := local.NewFaceService(config.HaarCascadePath, config.MinFaceSize)
	if err != nil {
		logger.Warning("local face backend unavailable", logger.LoggerOptions{
			Key:  "error",
			Data: err,
		})
	} else {
		secondary = localService
		s.cleanups = append(s.cleanups, func() { localService.Close() })
	}
	if primary == nil && secondary == nil {
		return nil, errors.New("no face backend: set FACE_SERVICE_URL or install the OpenCV haar cascades")
	}

	thresholds := antispoof.DefaultThresholds()
	thresholds.MinTexture = config.LivenessMinTexture
	thresholds.MinContrast = config.LivenessMinContrast

	matchConfig := facematch.DefaultConfig()
	matchConfig.Primary.AcceptThreshold = config.FaceAcceptThreshold
	matchConfig.Primary.MaxDistance = config.FaceMaxDistance
	matchConfig.Fallback.AcceptThreshold = config.FallbackAcceptThreshold
	matchConfig.Fallback.MaxDistance = config.FaceMaxDistance
	matchConfig.MinFaceSize = config.MinFaceSize

	return facematch.NewEngine(primary, secondary, stores.FaceProfiles, antispoof.NewScorer(thresholds), matchConfig), nil
}

func emailSender(config *env.Config) emails.EmailServiceType {
	if config.ResendAPIKey == "" {
		return emails.LogEmailService{}
	}
	return emails.NewResendService(config.ResendAPIKey, config.EmailFrom)
}

// Used to clean up after services that have been shutdown.
func (s *Services) CleanUp() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
	s.cleanups = nil
	logger.Sync()
}
