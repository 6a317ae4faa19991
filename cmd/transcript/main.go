package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TRANSCRIPT_FILEPATH is the badger directory written by the debate binary
	TranscriptFilepath string `envconfig:"TRANSCRIPT_FILEPATH" default:"./transcripts"`
	// LIMIT_TURNS bounds the number of turns read per page
	LimitTurns int `envconfig:"LIMIT_TURNS" default:"100"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

func main() {
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}
	if err := newRootCmd(config).Execute(); err != nil {
		os.Exit(1)
	}
}
