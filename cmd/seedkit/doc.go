// Command seedkit manages versioned database seeds.
//
// Install once globally:
//
//	go install github.com/shashiranjanraj/seedkit/cmd/seedkit@latest
//
// Then from a project directory:
//
//	seedkit generate users   # database/seeders/20260101120000_users.sql
//	seedkit run              # apply pending seeds in file-name order
//	seedkit rollback         # revert applied seeds, newest first
//	seedkit status           # applied / pending / orphaned
//
// The stock binary runs SQL seeds. Go seeds register themselves from init()
// and must be compiled in, so projects that use them build their own entry
// point around app.New().Run() (see pkg/app).
//
// Configuration comes from config/app.json, .env and the environment:
// DB_DRIVER, DATABASE_DSN, SEED_DIR, SEED_TABLE, SEED_NUMBERING,
// SEED_TEMPLATE, SEED_MIGRATE_CMD, SEED_METRICS_FILE, APP_ENV and LOG_MONGO_*.
package main
