// Package database opens and manages the content database described by
// the configuration's database descriptor.
//
// Connections are SQLite-backed and built on GORM. The descriptor's table
// prefix flows into GORM's naming strategy, so every model-derived table
// name automatically carries the prefix. Content tables are addressed
// literally and share one model per table; use TableName and
// AutoMigrateTable for those.
//
//	cfg, _ := app.Config().DatabaseConfig()
//	db, err := database.Open(cfg, log)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	err = db.AutoMigrate(&users.User{})
package database
