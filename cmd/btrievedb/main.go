package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/yashagw/btrievedb/internal/btrieve"
	"github.com/yashagw/btrievedb/internal/config"
	"github.com/yashagw/btrievedb/internal/convert"
	"github.com/yashagw/btrievedb/internal/file"
	"github.com/yashagw/btrievedb/internal/logutil"
	"go.uber.org/zap"
)

const usage = `usage: btrievedb [-config file] <command> [args]

commands:
  import <model.toml> [NAME.DAT]   convert a model into the data directory
  export <NAME.DAT>                print the model of a converted file
  shell                            start an interactive prompt
`

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logutil.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	fm, err := file.NewManager(cfg.DataDir, logger)
	if err != nil {
		log.Fatalf("Failed to initialize data directory: %v", err)
	}

	args := flag.Args()
	switch args[0] {
	case "import":
		err = runImport(fm, logger, args[1:])
	case "export":
		err = runExport(fm, logger, args[1:])
	case "shell":
		files := btrieve.NewFiles(fm, convert.LoadModelFile, logger)
		defer files.CloseAll()
		fmt.Println("BtrieveDB shell")
		fmt.Printf("Data directory: %s\n", fm.Dir())
		fmt.Println("Type 'help' for commands, 'quit' to exit")
		fmt.Println()
		err = NewShell(files, os.Stdout).Run(os.Stdin)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Sync()
		log.Fatalf("%s failed: %v", args[0], err)
	}
}

// runImport converts a model file into the store serving NAME.DAT. NAME
// defaults to the model file's base name.
func runImport(fm *file.Manager, logger *zap.Logger, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: import <model.toml> [NAME.DAT]")
	}
	modelPath := args[0]
	fileName := strings.TrimSuffix(filepath.Base(modelPath), filepath.Ext(modelPath)) + file.DataExtension
	if len(args) == 2 {
		fileName = args[1]
	}

	dbPath := fm.StorePath(fileName)
	exists, err := file.Exists(dbPath)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%s already exists", dbPath)
	}

	converter := convert.NewConverter(logger)
	if err := converter.ConvertIfAbsent(dbPath, func() (*convert.Model, error) {
		return convert.LoadModelFile(modelPath)
	}); err != nil {
		return err
	}
	fmt.Printf("Imported %s into %s\n", modelPath, dbPath)
	return nil
}

// runExport prints the model of an already converted file as TOML.
func runExport(fm *file.Manager, logger *zap.Logger, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: export <NAME.DAT>")
	}
	p, err := btrieve.Open(fm.StorePath(args[0]), logger)
	if err != nil {
		return err
	}
	defer p.Close()

	model, err := p.Model()
	if err != nil {
		return err
	}
	return convert.EncodeModel(os.Stdout, model)
}
