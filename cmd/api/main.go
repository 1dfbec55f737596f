package main

import (
	"context"
	"log"

	"recordmusic/internal/config"
	"recordmusic/internal/handler"
	"recordmusic/internal/model"
	"recordmusic/internal/pkg"
	"recordmusic/internal/repository/mongo"
	"recordmusic/internal/repository/mysql"
	"recordmusic/internal/repository/redis"
	"recordmusic/internal/router"
	"recordmusic/internal/service"
	"recordmusic/internal/storage"
)

func main() {
	cfg := config.Load()

	pkg.InitSecrets(cfg.AccessSecret, cfg.RefreshSecret)

	if err := mysql.InitDB(cfg.MySQLDSN); err != nil {
		panic(err)
	}

	// 连接redis
	if err := redis.Init(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err != nil {
		panic(err)
	}

	// 音乐地图存 mongo
	maps, err := mongo.NewStore(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		panic(err)
	}

	// 头像存 minio
	store, err := storage.NewObjStore(storage.ObjStoreConfig{
		Endpoint:  cfg.MinIOEndpoint,
		AccessKey: cfg.MinIOAccessKey,
		SecretKey: cfg.MinIOSecretKey,
		Bucket:    cfg.MinIOBucket,
		UseSSL:    cfg.MinIOUseSSL,
	})
	if err != nil {
		panic(err)
	}
	if err = store.EnsureBucket(context.Background()); err != nil {
		panic(err)
	}

	// 自动建表（开发阶段 OK）
	mysql.DB.AutoMigrate(
		&model.User{},
		&model.Follow{},
		&model.SocialOutbox{},
		&model.Music{},
		&model.ProfileImage{},
	)

	emailSvc := service.NewEmailService(pkg.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.ActivationBaseURL, []byte(cfg.AccessSecret))

	imageSvc := service.NewProfileImageService(store)
	userSvc := service.NewUserService(emailSvc, imageSvc)
	followSvc := service.NewFollowService(userSvc)
	musicSvc := service.NewMusicService()
	mapSvc := service.NewMusicMapService(maps)

	// 关注事件经 outbox 进 Kafka，连不上 broker 就退化成日志输出
	sender := service.Sender(service.LogSender)
	producer, err := pkg.NewKafkaProducer(pkg.KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
	if err != nil {
		log.Printf("kafka unavailable, outbox events will only be logged: %v", err)
	} else {
		defer producer.Close()
		sender = service.KafkaSender(producer)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go service.NewOutboxRelayer(sender).Run(ctx)

	r := router.InitRouter(router.Handlers{
		User:     handler.NewUserHandler(userSvc),
		Follow:   handler.NewFollowHandler(followSvc),
		Email:    handler.NewEmailHandler(emailSvc),
		Social:   handler.NewSocialHandler(userSvc, cfg),
		Music:    handler.NewMusicHandler(musicSvc),
		MusicMap: handler.NewMusicMapHandler(mapSvc),
		Image:    handler.NewImageHandler(imageSvc),
	})
	if err := r.Run(cfg.HTTPAddr); err != nil {
		panic(err)
	}
}
