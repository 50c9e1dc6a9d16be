// Command devtoken emite un JWT de desarrollo para probar la API con AUTH_PROVIDER=jwt.
//
//	go run ./cmd/devtoken -user u1
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/despensa-api/pkg/config"
	"github.com/jhoicas/despensa-api/pkg/jwt"
)

func main() {
	userID := flag.String("user", "", "ID del usuario dueño de la despensa")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "cargar configuración:", err)
		os.Exit(1)
	}
	if *userID == "" {
		fmt.Fprintln(os.Stderr, "uso: devtoken -user <id>")
		os.Exit(2)
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, *userID, cfg.JWT.Issuer, cfg.JWT.Expiration)
	if err != nil {
		fmt.Fprintln(os.Stderr, "generar token:", err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
