package main

import (
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/spf13/cobra"

	"guestbook/backend/migrations"
)

func newMigrateCmd(c *cli) *cobra.Command {
	var dbType, dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply versioned schema migrations (postgres, pgx, mysql)",
	}
	cmd.PersistentFlags().StringVar(&dbType, "type", "", "database type, defaults to database.type")
	cmd.PersistentFlags().StringVar(&dsn, "dsn", "", "connection string, defaults to database.dsn")

	open := func() (*migrate.Migrate, error) {
		if dbType == "" {
			dbType = c.cfg.Database.Type
		}
		if dsn == "" {
			dsn = c.cfg.Database.DSN
		}
		return openMigrator(dbType, dsn)
	}

	var upSteps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if upSteps > 0 {
				err = m.Steps(upSteps)
			} else {
				err = m.Up()
			}
			return reportMigration(cmd, m, err)
		},
	}
	up.Flags().IntVar(&upSteps, "steps", 0, "apply at most N migrations (0 = all)")

	var downSteps int
	var downAll bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()

			if downAll {
				err = m.Down()
			} else {
				err = m.Steps(-downSteps)
			}
			return reportMigration(cmd, m, err)
		},
	}
	down.Flags().IntVar(&downSteps, "steps", 1, "roll back N migrations")
	down.Flags().BoolVar(&downAll, "all", false, "roll back every migration")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := open()
			if err != nil {
				return err
			}
			defer m.Close()
			return reportMigration(cmd, m, nil)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

// migrationDialect 将 database.type 映射为迁移脚本目录
func migrationDialect(dbType string) (string, error) {
	switch dbType {
	case "postgres", "postgresql", "pgx":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	case "sqlite":
		return "", errors.New("sqlite schema is created automatically by the server, no migrations needed")
	case "":
		return "", errors.New("database type is required (--type or GUESTBOOK_DATABASE_TYPE)")
	default:
		return "", fmt.Errorf("unsupported database type: %s", dbType)
	}
}

// openMigrator 连接数据库并加载内嵌迁移脚本
func openMigrator(dbType, dsn string) (*migrate.Migrate, error) {
	dialect, err := migrationDialect(dbType)
	if err != nil {
		return nil, err
	}
	if dsn == "" {
		return nil, errors.New("database DSN is required (--dsn or GUESTBOOK_DATABASE_DSN)")
	}

	dir, err := migrations.FS(dialect)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(dir, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	switch dialect {
	case "mysql":
		// 迁移脚本包含多条语句
		mcfg, err := gomysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		mcfg.MultiStatements = true
		mcfg.ParseTime = true

		db, err := sql.Open("mysql", mcfg.FormatDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect mysql: %w", err)
		}
		return migrate.NewWithInstance("iofs", source, "mysql", driver)
	default:
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		driver, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect postgres: %w", err)
		}
		return migrate.NewWithInstance("iofs", source, "postgres", driver)
	}
}

// reportMigration 输出迁移结果和当前版本
func reportMigration(cmd *cobra.Command, m *migrate.Migrate, err error) error {
	out := cmd.OutOrStdout()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		fmt.Fprintln(out, "no change")
	case err != nil:
		return err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(out, "schema version: none")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version: %d", version)
	if dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)
	return nil
}
