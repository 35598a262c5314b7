package main

import (
	"fmt"
	"os"
	"strings"

	"tour_sales_backend/internal/database"
	"tour_sales_backend/internal/events"
	kafkapub "tour_sales_backend/internal/events/kafka"
	"tour_sales_backend/internal/importer"
	"tour_sales_backend/internal/models"
	"tour_sales_backend/internal/repositories"
	"tour_sales_backend/internal/services"
	"tour_sales_backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// salesctl is the operator companion to the HTTP server: it runs bulk sales
// imports straight against the database, without going through the API.
func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}
	utils.InitLogger()

	rootCmd := &cobra.Command{
		Use:   "salesctl",
		Short: "Operator tooling for the tour sales backend",
	}
	rootCmd.AddCommand(newImportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newImportCmd() *cobra.Command {
	var aliasesPath string

	cmd := &cobra.Command{
		Use:   "import <file.csv|file.xlsx>",
		Short: "Import a sales export file into the ledger",
		Long: `Import reads a CSV or XLSX sales export and records each row as a sale
batch. Rows already imported earlier (matched by content fingerprint) are
skipped, so re-running an import is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(args[0], aliasesPath)
		},
	}
	cmd.Flags().StringVar(&aliasesPath, "aliases", utils.Getenv("IMPORT_ALIASES_PATH", ""),
		"path to a YAML file with header/product alias overrides")
	return cmd
}

func runImport(path, aliasesPath string) error {
	database.InitDB(
		utils.Getenv("DB_HOST", "localhost"),
		utils.Getenv("DB_PORT", "5432"),
		utils.Getenv("DB_USER", "tour_sales_user"),
		utils.Getenv("DB_PASSWORD", "tour_sales_password"),
		utils.Getenv("DB_NAME", "tour_sales_db"),
		utils.Getenv("DB_SSLMODE", "disable"),
		"",
	)
	db := database.GetDB()
	defer db.Close()

	aliases, err := importer.LoadAliases(aliasesPath)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if brokers := utils.Getenv("KAFKA_BROKERS", ""); brokers != "" {
		kp := kafkapub.NewPublisher(strings.Split(brokers, ","))
		defer kp.Close()
		publisher = kp
	}

	catalogRepo := repositories.NewCatalogRepository(db)
	saleRepo := repositories.NewSaleRepository(db)
	movementRepo := repositories.NewMovementRepository(db)
	ledgerService := services.NewLedgerService(saleRepo, catalogRepo, movementRepo, publisher, db)
	importService := services.NewImportService(ledgerService, saleRepo, catalogRepo, aliases)

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", path, err)
	}
	defer file.Close()

	caller := models.Caller{Username: "salesctl", Role: models.RoleAdmin}
	summary, err := importService.ImportFile(caller, file, path)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d lines, skipped %d of %d rows\n", summary.Created, summary.Skipped, summary.TotalRows)
	for _, group := range summary.Errors {
		fmt.Printf("  %s: rows %v\n", group.Message, group.Rows)
	}
	return nil
}
