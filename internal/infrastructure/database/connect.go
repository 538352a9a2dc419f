package database

import (
	"fmt"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// ConnectWithRetries dials the master (and any slaves) until a ping
// succeeds or the attempt budget runs out. Metadata reads sit on the hot
// serve path, so startup blocks until the pool is actually usable.
func ConnectWithRetries(masterDSN string, slaves []string, opts *dbpg.Options, retries int, delaySec int) (*dbpg.DB, error) {
	if retries <= 0 {
		retries = 1
	}
	if delaySec <= 0 {
		delaySec = 1
	}

	var database *dbpg.DB
	var err error

	for i := 0; i < retries; i++ {
		zlog.Logger.Info().Msgf("Database connection attempt %d/%d", i+1, retries)

		database, err = dbpg.New(masterDSN, slaves, opts)
		switch {
		case err != nil:
			zlog.Logger.Warn().Err(err).Msgf("dbpg.New failed on attempt %d/%d", i+1, retries)
			database = nil
		case database.Master == nil:
			err = fmt.Errorf("database.Master is nil")
			zlog.Logger.Warn().Err(err).Msgf("nil master connection on attempt %d/%d", i+1, retries)
			database = nil
		default:
			if pingErr := database.Master.Ping(); pingErr != nil {
				err = pingErr
				zlog.Logger.Warn().Err(pingErr).Msgf("db ping failed on attempt %d/%d", i+1, retries)
				closeAll(database)
				database = nil
			} else {
				zlog.Logger.Info().Msg("Database connection established successfully")
				return database, nil
			}
		}

		if i < retries-1 {
			time.Sleep(time.Duration(delaySec) * time.Second)
		}
	}

	return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retries, err)
}

func closeAll(database *dbpg.DB) {
	if database.Master != nil {
		database.Master.Close()
	}
	for _, s := range database.Slaves {
		if s != nil {
			s.Close()
		}
	}
}
