package main

import (
	"context"
	"log"
	"os"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/dmitrijs2005/gophauth/internal/client/cli"
	"github.com/dmitrijs2005/gophauth/internal/client/config"
	"github.com/dmitrijs2005/gophauth/internal/client/session"
	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

func main() {

	ctx := context.Background()
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	store, err := session.Open(ctx, cfg.SessionFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer store.Close()

	conn, err := grpc.NewClient(cfg.ServerEndpointAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer conn.Close()

	app := cli.NewApp(gs.NewAccountClient(conn), store, os.Stdin, os.Stdout)
	if err := app.Run(ctx); err != nil {
		log.Printf("%v", err)
	}

}
