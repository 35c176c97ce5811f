// Command uploads-lambda serves the upload API from AWS Lambda.
package main

import (
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog/log"

	"github.com/km-arc/go-uploads/app/http/requests"
	"github.com/km-arc/go-uploads/app/lambda"
	"github.com/km-arc/go-uploads/app/providers"
	"github.com/km-arc/go-uploads/app/uploads"
	"github.com/km-arc/go-uploads/framework/app"
	"github.com/km-arc/go-uploads/framework/config"
	"github.com/km-arc/go-uploads/framework/container"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if _, err := providers.NewCreateFiles(cfg); err != nil {
		log.Fatal().Err(err).Msg("invalid upload rules")
	}

	application := app.New(cfg)
	providers.Register(application)
	application.Boot()

	handler := lambda.NewHandler(
		container.Resolve[*requests.CreateFiles](application.Container, "requests.create_files"),
		container.Resolve[*uploads.Service](application.Container, "uploads"),
		cfg.Upload.Token,
		cfg.Upload.MaxBody(),
		application.Logger(),
	)
	awslambda.Start(handler.Handle)
}
