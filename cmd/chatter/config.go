package main

import (
	"github.com/kelseyhightower/envconfig"
)

const (
	TransportWebsocket = "ws"
	TransportGRPC      = "grpc"
)

type Config struct {
	ServerURL string `envconfig:"CHATTER_SERVER_URL" default:"ws://localhost:5000/ws"`
	GRPCAddr  string `envconfig:"CHATTER_GRPC_ADDR" default:"localhost:5001"`
	// CHATTER_TRANSPORT is either "ws" or "grpc"
	Transport string `envconfig:"CHATTER_TRANSPORT" default:"ws"`
	Author    string `envconfig:"CHATTER_AUTHOR" default:"Mwalimu"`
	Token     string `envconfig:"CHATTER_TOKEN"`
	// CHATTER_COLOURS enables colorized output
	Colours bool `envconfig:"CHATTER_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
