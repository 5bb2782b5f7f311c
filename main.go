package main

import (
	"flag"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/valyala/fasthttp"

	"github.com/funny-falcon/slabpool/config"
)

var configPath = flag.String("config", "", "toml config file")
var slabSize = flag.Int("slab", 0, "elements per slab")
var count = flag.Int("n", 0, "number of factorials")
var provider = flag.String("provider", "", "bulk provider: heap or mmap")
var listen = flag.String("listen", "", "serve /stats and /metrics on this address")
var asJSON = flag.Bool("json", false, "print pool stats as json")
var logLevel = flag.String("loglevel", "", "log level")

var log = logrus.WithField("prefix", "slabpool")

var json = jsoniter.Config{
	OnlyTaggedField: true,
	CaseSensitive:   true,
	IndentionStep:   2,
}.Froze()

func main() {
	flag.Parse()

	var conf config.Config
	if err := config.Load(*configPath, &conf); err != nil {
		log.Fatal(err)
	}
	applyFlags(&conf)
	if err := conf.Validate(); err != nil {
		log.Fatal(err)
	}
	level, _ := logrus.ParseLevel(conf.LogLevel)
	logrus.SetLevel(level)

	reg := prometheus.NewRegistry()
	report, err := Run(os.Stdout, conf, reg)
	if err != nil {
		log.Fatal(err)
	}
	if conf.JSON {
		if err := json.NewEncoder(os.Stdout).Encode(report); err != nil {
			log.Fatal(err)
		}
	}

	if conf.Listen == "" {
		return
	}
	log.WithField("listen", conf.Listen).Info("serving stats")
	err = fasthttp.ListenAndServe(conf.Listen, statsHandler(report, reg))
	if err != nil {
		log.Fatal(err)
	}
}

// applyFlags overrides conf with the flags given on the command line.
func applyFlags(conf *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "slab":
			conf.SlabSize = *slabSize
		case "n":
			conf.Count = *count
		case "provider":
			conf.Provider = *provider
		case "listen":
			conf.Listen = *listen
		case "json":
			conf.JSON = *asJSON
		case "loglevel":
			conf.LogLevel = *logLevel
		}
	})
}
