package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/tixgate/internal/app"
	"github.com/tixgate/internal/config"
	"github.com/tixgate/internal/logger"
	"github.com/tixgate/internal/models"
	"github.com/tixgate/internal/vault"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiMag   = "\033[95m"
)

var weakSecretMarkers = []string{"change-me", "change-in-production", "your-secret-key"}

func main() {
	var (
		mode        string
		migrateOnly bool
	)
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "仅执行数据库迁移后退出")
	flag.Parse()

	printStartupBanner(mode)

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	release := strings.EqualFold(cfg.Server.Mode, "release")
	checkJWTSecret(stdLog, cfg.JWT.SecretKey, release)

	// 凭证密钥必须先于任何数据库访问加载
	credentialVault, err := vault.NewFromHex(cfg.Security.CredentialEncryptionKey)
	if err != nil {
		stdLog.Fatalf("凭证加密密钥无效（security.credential_encryption_key 需为 64 位十六进制）: %v", err)
	}

	if err := models.InitDB(cfg.Database); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}
	if migrateOnly {
		logger.Infow("server_migrate_only_done", "driver", cfg.Database.Driver)
		return
	}

	if release {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := app.Run(app.Options{
		Config:  cfg,
		Vault:   credentialVault,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

// checkJWTSecret release 模式拒绝弱密钥，其余模式仅提示
func checkJWTSecret(stdLog *log.Logger, secret string, release bool) {
	if !isWeakSecret(secret) {
		return
	}
	if release {
		stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
	}
	stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	for _, marker := range weakSecretMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}
	return false
}

func printStartupBanner(mode string) {
	fmt.Println(ansiMag + "┌────────────────────────────────────────────┐" + ansiReset)
	fmt.Println(ansiMag + "│" + ansiBold + "  TixGate · ticketing payment gateway       " + ansiReset + ansiMag + "│" + ansiReset)
	fmt.Println(ansiMag + "└────────────────────────────────────────────┘" + ansiReset)
	fmt.Println(ansiCyan + "providers: ecpay, epay" + ansiReset)
	fmt.Println(ansiCyan + "mode:      " + mode + ansiReset)
	fmt.Println(ansiDim + "──────────────────────────────────────────────" + ansiReset)
}
