package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	player := fs.String("player", "", "player_id filter (crafts, achievements)")
	limit := fs.Int("limit", 20, "result limit")
	_ = fs.Parse(args)

	q := "crafts"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		path = filepath.Join(*dataDir, "index", "crafts.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	if *limit <= 0 {
		*limit = 20
	}

	var rows []any
	switch q {
	case "crafts":
		rows, err = queryCrafts(db, *player, *limit)
	case "rejections":
		rows, err = queryRejections(db)
	case "achievements":
		rows, err = queryAchievements(db, *player)
	case "catalogs":
		rows, err = queryCatalogs(db)
	default:
		fmt.Fprintln(os.Stderr, "unknown query:", q)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "query:", err)
		os.Exit(1)
	}
	for _, r := range rows {
		printJSON(r)
	}
}

type craftRow struct {
	TxID       string `json:"tx_id"`
	Time       string `json:"time"`
	PlayerID   string `json:"player_id"`
	Accepted   bool   `json:"accepted"`
	Reason     string `json:"reason,omitempty"`
	RecipeID   string `json:"recipe_id,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
}

func queryCrafts(db *sql.DB, player string, limit int) ([]any, error) {
	rows, err := db.Query(`SELECT tx_id,time,player_id,accepted,COALESCE(reason,''),COALESCE(recipe_id,''),iterations
		FROM crafts WHERE (?='' OR player_id=?) ORDER BY time DESC LIMIT ?`, player, player, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r craftRow
		var accepted int
		if err := rows.Scan(&r.TxID, &r.Time, &r.PlayerID, &accepted, &r.Reason, &r.RecipeID, &r.Iterations); err != nil {
			return nil, err
		}
		r.Accepted = accepted != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

type reasonRow struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

func queryRejections(db *sql.DB) ([]any, error) {
	rows, err := db.Query(`SELECT reason,COUNT(*) FROM crafts WHERE accepted=0 GROUP BY reason ORDER BY COUNT(*) DESC, reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r reasonRow
		if err := rows.Scan(&r.Reason, &r.Count); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type achievementRow struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	AwardedAt string `json:"awarded_at"`
}

func queryAchievements(db *sql.DB, player string) ([]any, error) {
	rows, err := db.Query(`SELECT player_id,name,awarded_at FROM achievements WHERE (?='' OR player_id=?) ORDER BY player_id,name`, player, player)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r achievementRow
		if err := rows.Scan(&r.PlayerID, &r.Name, &r.AwardedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type catalogRow struct {
	Name      string `json:"name"`
	Digest    string `json:"digest"`
	UpdatedAt string `json:"updated_at"`
}

func queryCatalogs(db *sql.DB) ([]any, error) {
	rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []any
	for rows.Next() {
		var r catalogRow
		if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
