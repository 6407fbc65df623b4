package models

import "time"

// Config is the full notifier configuration, as loaded by config.Load.
type Config struct {
	Webhook        string        `json:"webhook" mapstructure:"webhook"`
	WebhookTimeout time.Duration `json:"webhook_timeout" mapstructure:"webhook_timeout"`
	Debug          bool          `json:"debug" mapstructure:"debug"`
	ContentLimit   int           `json:"content_limit" mapstructure:"content_limit"`
	FooterText     string        `json:"footer_text" mapstructure:"footer_text"`
	CustomColor    string        `json:"custom_color" mapstructure:"custom_color"`
	EmbedColor     string        `json:"embed_color" mapstructure:"embed_color"`

	Log      LogConfig      `json:"log" mapstructure:"log"`
	Forum    ForumConfig    `json:"forum" mapstructure:"forum"`
	Dedup    DedupConfig    `json:"dedup" mapstructure:"dedup"`
	Schedule ScheduleConfig `json:"schedule" mapstructure:"schedule"`
	Proxy    ProxyConfig    `json:"proxy" mapstructure:"proxy"`
	Ops      OpsConfig      `json:"ops" mapstructure:"ops"`
}

// LogConfig overrides the level derived from Debug when Level is set.
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
}

// ForumConfig describes how to reach the Joomla/Kunena database and site.
type ForumConfig struct {
	Driver       string        `json:"driver" mapstructure:"driver"` // mysql, pgx or sqlite3
	DSN          string        `json:"dsn" mapstructure:"dsn"`
	TablePrefix  string        `json:"table_prefix" mapstructure:"table_prefix"`
	SiteRoot     string        `json:"site_root" mapstructure:"site_root"`
	AdminPrefix  string        `json:"admin_prefix" mapstructure:"admin_prefix"`
	QueryTimeout time.Duration `json:"query_timeout" mapstructure:"query_timeout"`
}

// DedupConfig selects the processed-post store.
type DedupConfig struct {
	Backend   string `json:"backend" mapstructure:"backend"` // file or redis
	File      string `json:"file" mapstructure:"file"`
	RedisAddr string `json:"redis_addr" mapstructure:"redis_addr"`
	RedisKey  string `json:"redis_key" mapstructure:"redis_key"`
}

// ScheduleConfig controls the periodic recency check.
type ScheduleConfig struct {
	Enabled bool          `json:"enabled" mapstructure:"enabled"`
	Spec    string        `json:"spec" mapstructure:"spec"`
	Window  time.Duration `json:"window" mapstructure:"window"`
	Limit   int           `json:"limit" mapstructure:"limit"`
}

// ProxyConfig is the listener that fronts the forum and runs the request hooks.
type ProxyConfig struct {
	Listen   string `json:"listen" mapstructure:"listen"`
	Upstream string `json:"upstream" mapstructure:"upstream"`
}

// OpsConfig holds the metrics/health listeners.
type OpsConfig struct {
	Listen     string `json:"listen" mapstructure:"listen"`
	GRPCListen string `json:"grpc_listen" mapstructure:"grpc_listen"`
}
