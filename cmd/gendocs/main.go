package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra/doc"
	"github.com/yoanbernabeu/wrtprobe/internal/cmd"
)

func main() {
	outputDir := flag.String("out", "./docs/commands", "output directory")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatal().Err(err).Msg("failed to create output directory")
	}

	filePrepender := func(filename string) string {
		name := filepath.Base(filename)
		name = strings.TrimSuffix(name, filepath.Ext(name))
		title := strings.ReplaceAll(name, "_", " ")
		return `---
title: "` + title + `"
---

`
	}

	linkHandler := func(name string) string {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		return "/wrtprobe/commands/" + strings.ToLower(base) + "/"
	}

	rootCmd := cmd.GetRootCmd()
	rootCmd.DisableAutoGenTag = true
	if err := doc.GenMarkdownTreeCustom(rootCmd, *outputDir, filePrepender, linkHandler); err != nil {
		log.Fatal().Err(err).Msg("failed to generate documentation")
	}

	log.Info().Str("dir", *outputDir).Msg("documentation generated")
}
