// token emite un JWT de estación firmado con JWT_SECRET.
//
// Uso: go run ./cmd/token --station caja-01 --role admin [--minutes 1440]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhoicas/facturador-dian/pkg/config"
	pkgjwt "github.com/jhoicas/facturador-dian/pkg/jwt"
)

func main() {
	station := pflag.String("station", "", "identificador de la estación (obligatorio)")
	role := pflag.String("role", pkgjwt.RoleOperator, "rol: admin | operator")
	minutes := pflag.Int("minutes", 0, "vigencia en minutos; 0 usa JWT_EXPIRATION_MINUTES")
	pflag.Parse()

	if *station == "" {
		fmt.Fprintln(os.Stderr, "--station es obligatorio")
		os.Exit(2)
	}
	if *role != pkgjwt.RoleAdmin && *role != pkgjwt.RoleOperator {
		fmt.Fprintf(os.Stderr, "rol inválido %q\n", *role)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	exp := cfg.JWT.Expiration
	if *minutes > 0 {
		exp = *minutes
	}

	token, err := pkgjwt.Generate(cfg.JWT.Secret, *station, *role, cfg.JWT.Issuer, exp)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generar token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
