// Package sqlitestore stores declension tables in SQLite.
//
// Tables land in the derdiedas table, using the column names the game
// reads. Every import run is recorded in import_runs.
package sqlitestore
