package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"content-registry/api"
	"content-registry/config"
	"content-registry/db"
	"content-registry/gateway"
	"content-registry/service"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	confPath := flag.String("config", "", "config file path, default $CONF_DIR_PATH/config.yaml")
	flag.Parse()

	path := *confPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			logrus.WithError(err).Warn("no config file, use defaults and env")
		} else {
			path = p
		}
	}

	loader, conf, err := config.LoadConfig(path)
	if err != nil {
		logrus.WithError(err).Fatal("load config failed")
	}
	setupLogger(conf.Log)

	store, err := db.Open(conf.Database, conf.Gorm)
	if err != nil {
		logrus.WithError(err).Fatal("open database failed")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Warn("close database failed")
		}
	}()

	clock := service.RealClock()
	users := service.NewUserRegistry(store.DB(), clock)
	contents := service.NewContentRegistry(store.DB(), users, clock, conf.Registry.AutoCreateUser)
	feed := gateway.NewFeedClient(conf.Feed.BaseURL, conf.Feed.Timeout)

	server := api.NewServer(conf.Server, api.NewHandler(users, contents, feed))

	// 热更只生效业务开关和日志级别，其余配置需重启
	if path != "" {
		loader.Watch(func(c *config.Config) {
			contents.SetAutoCreateUser(c.Registry.AutoCreateUser)
			if lvl, err := logrus.ParseLevel(c.Log.Level); err == nil {
				logrus.SetLevel(lvl)
			}
			logrus.WithField("autoCreateUser", c.Registry.AutoCreateUser).Info("config reloaded")
		})
	}

	wp := service.NewWorkerPool(context.Background(), 2)
	wp.Start()

	// api 服务
	if err = wp.Submit("http-server", server.Run); err != nil {
		logrus.WithError(err).Fatal("submit http server failed")
	}
	if err = wp.Submit("db-stats", store.ReportStats); err != nil {
		logrus.WithError(err).Fatal("submit db stats failed")
	}
	logrus.WithField("addr", conf.Server.Addr()).Info("content registry started")

	// 捕捉系统quit信号
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	select {
	case sig := <-signals:
		logrus.WithField("signal", sig.String()).Info("shutting down")
	case <-wp.Done():
	}

	if err = wp.Stop(); err != nil {
		logrus.WithError(err).Error("worker pool stopped with error")
	}
}

func setupLogger(conf config.Log) {
	lvl, err := logrus.ParseLevel(conf.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	if conf.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if conf.File == "" {
		logrus.SetOutput(os.Stdout)
		return
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   conf.File,
		MaxSize:    conf.MaxSizeMB,
		MaxBackups: conf.MaxBackups,
		MaxAge:     conf.MaxAgeDays,
	}))
}
