package database

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/go-xorm/xorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
	"xorm.io/core"
)

// InitDB opens a database engine and syncs the chat schema. driver is
// "mysql" in production; tests use "sqlite3" with an in-memory DSN.
func InitDB(driver, dsn string) (*xorm.Engine, error) {
	engine, err := xorm.NewEngine(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s engine: %w", driver, err)
	}

	engine.SetTableMapper(core.NewPrefixMapper(core.SnakeMapper{}, "t_"))
	engine.SetColumnMapper(core.SnakeMapper{})

	if err := engine.Sync2(new(Message), new(Conversation), new(ConversationMember)); err != nil {
		return nil, fmt.Errorf("sync schema: %w", err)
	}
	return engine, nil
}

// MysqlDSN builds a xorm-compatible DSN from config fields.
func MysqlDSN(ip string, port int, user, pwd, dbname string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, pwd, ip, port, dbname)
}

// InitRedis returns a redis client for the presence cache.
func InitRedis(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
