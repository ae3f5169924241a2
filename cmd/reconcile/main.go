package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/oksasatya/linkcircle/config"
	"github.com/oksasatya/linkcircle/internal/container"
	"github.com/oksasatya/linkcircle/internal/router"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

// reconcile scans every user for connections, requests and circles that
// disagree across records, and with --repair rewrites them.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	driver := flag.String("store", cfg.StoreDriver, "storage backend: postgres, mongo or memory")
	repair := flag.Bool("repair", false, "rewrite affected records instead of only reporting")
	reindex := flag.Bool("reindex", false, "also push every user to the search index")
	failOnIssues := flag.Bool("fail-on-issues", false, "exit with status 2 when issues are found")
	flag.Parse()
	cfg.StoreDriver = *driver

	logger := helpers.NewLogger(cfg.AppName+"-reconcile", cfg.Env)
	container.SetConfig(cfg)
	container.SetLogger(logger)

	ctx := context.Background()
	repo, closeStore, err := router.OpenStore(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("store: %v", err)
	}

	if addrs := cfg.ESAddrs(); *reindex && len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		container.SetES(es)
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err == nil {
		// repaired profiles must not be served stale from the cache
		container.SetRedis(rdb)
	}

	deps := router.BuildDeps(repo)
	report, err := deps.Reconciler.Run(ctx, *repair)
	if err == nil && *reindex {
		var n int
		n, err = deps.Profiles.Reindex(ctx)
		logger.WithField("indexed", n).Info("reindex finished")
	}
	_ = rdb.Close()
	closeStore()
	if err != nil {
		log.Fatalf("reconcile: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)

	if *failOnIssues && len(report.Issues) > 0 && !*repair {
		os.Exit(2)
	}
}
