package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"imgnote/adapters/database"
	"imgnote/adapters/lock"
	redisAdapter "imgnote/adapters/redis"
	internalS3 "imgnote/adapters/s3"
	"imgnote/adapters/sse"
	"imgnote/models"
	"imgnote/services/annotation"
	"imgnote/services/summary"
)

// Uploader stores image bytes and removes them again; *s3.S3Operator implements it.
type Uploader interface {
	UploadFileToS3(ctx context.Context, key, contentType string, content []byte) (string, error)
	DeleteObject(ctx context.Context, url string) error
}

// Publisher carries image events to the SSE connections of every replica.
type Publisher interface {
	Publish(event models.ImageEvent) error
}

type ServerImpl struct {
	db          *gorm.DB
	repo        *database.Repository
	annotations *annotation.Service
	summaries   *summary.Aggregator
	uploader    Uploader
	htmlChecker *bluemonday.Policy
	sseManager  *sse.ConnectionManager[models.ImageEvent]
	publisher   Publisher
	redisClient *redis.Client
	ownsRedis   bool
	producer    *redisAdapter.Producer[models.ImageEvent]
	consumer    *redisAdapter.Consumer[sse.PublishRequest[models.ImageEvent]]
	logger      *slog.Logger

	// adminID is set by Start; uuid.Nil means nobody is admin.
	adminID uuid.UUID
	config  ServerConfig
}

type ServerOption func(*ServerImpl)

// WithDB uses db instead of connecting with ServerConfig.DB.
func WithDB(db *gorm.DB) ServerOption {
	return func(s *ServerImpl) {
		s.db = db
	}
}

// WithUploader uses u instead of building an S3 operator from ServerConfig.S3.
func WithUploader(u Uploader) ServerOption {
	return func(s *ServerImpl) {
		s.uploader = u
	}
}

// WithRedisClient enables the distributed lock and event stream on client.
func WithRedisClient(client *redis.Client) ServerOption {
	return func(s *ServerImpl) {
		s.redisClient = client
	}
}

func NewServer(config ServerConfig, opts ...ServerOption) (*ServerImpl, error) {
	const op = "NewServer"
	impl := &ServerImpl{
		htmlChecker: bluemonday.StrictPolicy(),
		logger:      slog.Default().With(slog.String("caller", "Server")),
		config:      config,
	}
	for _, opt := range opts {
		opt(impl)
	}

	if impl.db == nil {
		db, err := database.Open(config.DB)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to open database, err=%w", op, err)
		}
		impl.db = db
	}
	impl.repo = database.NewRepository(impl.db)

	if impl.uploader == nil && config.S3.Bucket != "" {
		client, err := internalS3.NewClient(context.Background(), config.S3.Endpoint, config.S3.Region, config.S3.AccessKeyID, config.S3.SecretAccessKey, config.S3.UsePathStyle)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create S3 client, err=%w", op, err)
		}
		operator, err := internalS3.NewS3Operator(client, config.S3.Bucket, config.S3.PublicBaseURL)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create S3 operator, err=%w", op, err)
		}
		impl.uploader = operator
	}
	if impl.uploader == nil {
		impl.logger.Warn("No object storage configured, image bytes are discarded")
	}

	if impl.redisClient == nil && config.Redis.Addr != "" {
		impl.redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		impl.ownsRedis = true
	}

	var locker lock.Locker
	if impl.redisClient != nil {
		if err := impl.setupRedisEvents(); err != nil {
			return nil, fmt.Errorf("[%s] Fail to set up redis event stream, err=%w", op, err)
		}
		locker = redisAdapter.NewLocker(impl.redisClient, config.Redis.KeyPrefix)
	} else {
		impl.sseManager = sse.NewConnectionManager[models.ImageEvent](
			sse.WithLogger[models.ImageEvent](slog.Default()),
		)
		impl.publisher = localPublisher{manager: impl.sseManager}
		locker = lock.NewLocal()
	}

	impl.annotations = annotation.NewService(impl.repo, impl.repo, locker,
		annotation.WithPublisher(impl.publisher),
	)
	aggregator, err := summary.NewAggregator(impl.repo, impl.repo, locker,
		summary.WithPublisher(impl.publisher),
	)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create summary aggregator, err=%w", op, err)
	}
	impl.summaries = aggregator
	return impl, nil
}

func (impl *ServerImpl) setupRedisEvents() error {
	stream := impl.config.Redis.StreamKeys.ImageEvents
	producer, err := redisAdapter.NewProducer[models.ImageEvent](impl.redisClient, stream,
		redisAdapter.WithProducerLogger[models.ImageEvent](slog.Default()),
	)
	if err != nil {
		return err
	}
	consumer, err := redisAdapter.NewConsumer[sse.PublishRequest[models.ImageEvent]](impl.redisClient, stream,
		redisAdapter.WithConsumerLogger[sse.PublishRequest[models.ImageEvent]](slog.Default()),
		redisAdapter.WithConsumerParseFunc(func(m map[string]any) (sse.PublishRequest[models.ImageEvent], error) {
			event, err := redisAdapter.DefaultParseFromMessage[models.ImageEvent](m)
			if err != nil {
				return sse.PublishRequest[models.ImageEvent]{}, fmt.Errorf("fail to parse image event, err=%w", err)
			}
			return sse.PublishRequest[models.ImageEvent]{
				Channel: event.ImageID.String(),
				Message: event,
			}, nil
		}),
	)
	if err != nil {
		return err
	}
	impl.producer = producer
	impl.consumer = consumer
	impl.publisher = producer
	impl.sseManager = sse.NewConnectionManager[models.ImageEvent](
		sse.WithLogger[models.ImageEvent](slog.Default()),
		sse.WithSubscriber[models.ImageEvent](consumer),
	)
	return nil
}

// Start prepares the schema and the seed data, then starts the event pipeline.
func (impl *ServerImpl) Start(ctx context.Context) error {
	const op = "Start"
	if err := database.Migrate(impl.db); err != nil {
		return fmt.Errorf("[%s] Fail to migrate, err=%w", op, err)
	}
	if err := impl.annotations.Initialize(ctx); err != nil {
		return fmt.Errorf("[%s] Fail to seed annotations, err=%w", op, err)
	}
	if err := impl.bootstrapAdmin(ctx); err != nil {
		return fmt.Errorf("[%s] Fail to bootstrap admin, err=%w", op, err)
	}
	if impl.producer != nil {
		impl.producer.Start()
	}
	if impl.consumer != nil {
		impl.consumer.Start()
	}
	impl.sseManager.Start()
	return nil
}

func (impl *ServerImpl) Close() {
	impl.sseManager.Done()
	if impl.consumer != nil {
		impl.consumer.Close()
	}
	if impl.producer != nil {
		impl.producer.Close()
	}
	if impl.ownsRedis {
		if err := impl.redisClient.Close(); err != nil {
			impl.logger.Warn("Fail to close redis client", slog.Any("error", err))
		}
	}
}

// bootstrapAdmin makes sure the configured admin account exists with the configured
// password and remembers its id. Without a password no account holds admin rights.
func (impl *ServerImpl) bootstrapAdmin(ctx context.Context) error {
	const op = "bootstrapAdmin"
	cfg := impl.config.Auth
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		impl.logger.Warn("No admin password configured, admin routes are disabled")
		return nil
	}
	hash, err := hashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("[%s] Fail to hash admin password, err=%w", op, err)
	}
	user, err := impl.repo.GetUserByUsername(ctx, cfg.AdminUsername)
	switch {
	case err == nil:
		// the configured password wins over whatever the account had
		if !checkPassword(user.PasswordHash, cfg.AdminPassword) {
			user.PasswordHash = hash
			if err := impl.repo.UpdateUser(ctx, user); err != nil {
				return fmt.Errorf("[%s] Fail to reset admin password, err=%w", op, err)
			}
			impl.logger.Warn("Admin password reset from config", slog.String("username", cfg.AdminUsername))
		}
	case errors.Is(err, models.ErrNotFound):
		email := cfg.AdminEmail
		if email == "" {
			email = cfg.AdminUsername + "@localhost"
		}
		user = &models.User{Username: cfg.AdminUsername, Email: email, PasswordHash: hash}
		if err := impl.repo.CreateUser(ctx, user); err != nil {
			return fmt.Errorf("[%s] Fail to create admin, err=%w", op, err)
		}
		impl.logger.Info("Admin account created", slog.String("username", cfg.AdminUsername))
	default:
		return fmt.Errorf("[%s] Fail to look up admin, err=%w", op, err)
	}
	impl.adminID = user.ID
	return nil
}

// RegisterHandlers mounts every route on router.
func (impl *ServerImpl) RegisterHandlers(router gin.IRouter) {
	optional := impl.OptionalUser()
	required := impl.RequireUser()
	admin := impl.RequireAdmin()

	router.POST("/auth/login", impl.postLogin)

	router.POST("/user", impl.postUser)
	router.GET("/user", impl.getUsers)
	router.GET("/user/:userID", impl.getUser)
	router.GET("/user/email/:email", impl.getUserByEmail)
	router.GET("/user/username/:username", impl.getUserByUsername)
	router.PUT("/user/:userID", required, impl.putUser)
	router.DELETE("/user/:userID", required, impl.deleteUser)

	router.GET("/image", optional, impl.getImages)
	router.POST("/image", required, impl.postImage)
	router.GET("/image/user/:userID", optional, impl.getImagesByUser)
	router.GET("/image/:imageID", optional, impl.getImage)
	router.PUT("/image/:imageID", required, impl.putImage)
	router.DELETE("/image/:imageID", required, impl.deleteImage)
	router.GET("/image/:imageID/comments", optional, impl.getImageComments)
	router.GET("/image/:imageID/summary", optional, impl.getImageSummary)
	router.GET("/image/:imageID/events", optional, impl.getImageEvents)

	router.POST("/comment", required, impl.postComment)
	router.GET("/comment", optional, impl.getComments)
	router.GET("/comment/:commentID", optional, impl.getComment)
	router.GET("/comment/user/:userID", optional, impl.getCommentsByUser)
	router.GET("/comment/image/:imageID", optional, impl.getCommentsByImage)
	router.PUT("/comment/:commentID", required, impl.putComment)
	router.DELETE("/comment/:commentID", required, impl.deleteComment)

	router.GET("/annotation", optional, impl.getAnnotations)
	router.GET("/annotation/:annotationID", optional, impl.getAnnotation)
	router.POST("/annotation", required, admin, impl.postAnnotation)
	router.PUT("/annotation/:annotationID", required, admin, impl.putAnnotation)
	router.DELETE("/annotation/:annotationID", required, admin, impl.deleteAnnotation)
}
