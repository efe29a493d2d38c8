package main

import (
	"flag"
	"log"
	"path/filepath"

	"edu_dashboard_client/internal/app"
	"edu_dashboard_client/internal/config"
	"edu_dashboard_client/pkg/configwatcher"
	"edu_dashboard_client/pkg/logger"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "configs", "配置文件目录")
	watch := flag.Bool("watch-config", false, "监听配置文件变更并热加载")
	flag.Parse()

	// .env 存在时先载入，便于本地覆盖API地址等
	godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	if *watch {
		go configwatcher.WatchConfig(filepath.Join(*configPath, "config.yaml"), application.ReloadConfig)
	}

	application.Run()
}
