package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

	"clubreg/entity"
	"clubreg/impl/allocator"
	"clubreg/impl/auth"
	"clubreg/impl/core"
	"clubreg/internal/config"
	"clubreg/internal/database"
	"clubreg/internal/http-server/api"
	"clubreg/internal/http-server/handlers/stripewebhook"
	"clubreg/internal/notify"
	"clubreg/internal/stripeclient"
	"clubreg/lib/logger"
	"clubreg/lib/sl"
)

const logFileName = "clubreg.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting clubreg",
		slog.String("config", *configPath),
		slog.String("env", conf.Env),
		slog.String("mode", conf.Membership.Mode),
	)

	policy, err := entity.PolicyFor(conf.Membership.Mode)
	if err != nil {
		log.Error("resolve membership policy", sl.Err(err))
		os.Exit(1)
	}

	mongo := database.NewMongoClient(conf)
	if err = mongo.EnsureIndexes(); err != nil {
		log.Error("ensure indexes", sl.Err(err))
		os.Exit(1)
	}

	alloc := allocator.New(
		mongo,
		conf.Membership.Prefix,
		conf.Membership.PadWidth,
		conf.Membership.MaxAttempts,
		log,
	)
	registry := core.New(mongo, alloc, policy, conf.Membership.ClubName, log)

	var webhookHandler stripewebhook.Core
	if sc := stripeclient.New(conf, log); sc != nil {
		sc.SetRegistry(registry)
		registry.SetPaymentService(sc)
		webhookHandler = sc
		log.Info("stripe fee collection enabled")
	}

	if tg, err := notify.New(conf, log); err != nil {
		log.Error("telegram notifier disabled", sl.Err(err))
	} else if tg != nil {
		registry.SetNotifier(tg)
		log.Info("telegram notifications enabled")
	}

	authService, err := auth.New(mongo, conf.Auth)
	if err != nil {
		log.Error("auth service", sl.Err(err))
		os.Exit(1)
	}

	if err = api.New(conf, log, registry, authService, webhookHandler); err != nil {
		log.Error("api server stopped", sl.Err(err))
		os.Exit(1)
	}
}
