package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/visit-logger/internal/app"
	"github.com/jwalitptl/visit-logger/internal/config"
	"github.com/jwalitptl/visit-logger/pkg/logger"
)

var adapter *ginadapter.GinLambda

func handler(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return adapter.ProxyWithContext(ctx, req)
}

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	l := logger.Setup(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Built once per container and reused across invocations.
	a, err := app.New(context.Background(), cfg, l, app.Options{})
	if err != nil {
		l.Fatal().Err(err).Msg("failed to build app")
	}
	adapter = ginadapter.New(a.Engine())

	lambda.Start(handler)
}
