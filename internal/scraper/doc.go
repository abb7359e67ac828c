// Package scraper provides HTTP fetching and HTML parsing of the player roster page.
//
// The scraper fetches the public roster page of the game server and extracts one
// entry per player row: the player name and the guild shown next to it (empty when
// the player has no guild). Rows that do not look like player rows are skipped.
package scraper
