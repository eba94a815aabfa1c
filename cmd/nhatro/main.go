package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"nhatro/internal/clock"
	"nhatro/internal/config"
	"nhatro/internal/logger"
	"nhatro/internal/migration"
	"nhatro/internal/server"
	"nhatro/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
