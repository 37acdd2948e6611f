package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the conventional roles and the first administrator",
	Long:  `Create the Admin, Director and Visualizador roles plus a superadmin account. Safe to run more than once.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		db, err := initGorm(sqlDB)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		roles := []string{"Admin", "Director", "Visualizador"}
		for _, name := range roles {
			var exists int
			if err := db.Raw("SELECT 1 FROM roles WHERE nombre = ?", name).Row().Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO roles (nombre) VALUES (?)", name).Error; err != nil {
				log.Fatalf("failed to insert role %s: %v", name, err)
			}
			fmt.Println("Seeded role:", name)
		}

		adminEmail := getSeedEnv("SEED_ADMIN_EMAIL", "admin@repositorio.local")
		adminName := getSeedEnv("SEED_ADMIN_NAME", "Administrador del Sistema")
		adminPassword := getSeedEnv("SEED_ADMIN_PASSWORD", "Cambiar.123")

		var globalID int64
		err = db.Raw("SELECT id FROM usuarios_global WHERE email = ?", adminEmail).Row().Scan(&globalID)
		if err != nil {
			hash, hashErr := bcrypt.GenerateFromPassword([]byte(adminPassword), cfg.Security.BCryptCost)
			if hashErr != nil {
				log.Fatalf("failed to hash password: %v", hashErr)
			}
			insertErr := db.Exec(
				"INSERT INTO usuarios_global (nombre_completo, email, password_hash, activo, cambio_clave_requerido) VALUES (?, ?, ?, true, true)",
				adminName, adminEmail, string(hash),
			).Error
			if insertErr != nil {
				log.Fatalf("failed to insert superadmin identity: %v", insertErr)
			}
			if err := db.Raw("SELECT id FROM usuarios_global WHERE email = ?", adminEmail).Row().Scan(&globalID); err != nil {
				log.Fatalf("failed to lookup superadmin identity: %v", err)
			}
			fmt.Println("Seeded superadmin identity:", adminEmail)
		} else {
			fmt.Println("superadmin identity already exists")
		}

		var roleID int64
		if err := db.Raw("SELECT id FROM roles WHERE nombre = ?", "Admin").Row().Scan(&roleID); err != nil {
			log.Fatalf("Admin role not found after seeding: %v", err)
		}

		var exists int
		if err := db.Raw("SELECT 1 FROM usuarios WHERE usuario_global_id = ?", globalID).Row().Scan(&exists); err == nil {
			fmt.Println("superadmin already linked to the repository")
			return
		}
		err = db.Exec(
			"INSERT INTO usuarios (usuario_global_id, rol_id, activo, fecha_creacion) VALUES (?, ?, true, now())",
			globalID, roleID,
		).Error
		if err != nil {
			log.Fatalf("failed to link superadmin: %v", err)
		}
		fmt.Println("Linked superadmin with Admin role:", adminEmail)
	},
}

func getSeedEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
