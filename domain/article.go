package domain

import "time"

// ArticleStatus describes the catalog lifecycle of a sellable item.
type ArticleStatus string

const (
	ArticleStatusAvailable  ArticleStatus = "AVAILABLE"
	ArticleStatusOutOfStock ArticleStatus = "OUT_OF_STOCK"
	ArticleStatusArchived   ArticleStatus = "ARCHIVED"
)

// Article is owned by the catalog; the dispatch core only reads its
// identifier and availability.
type Article struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Stock     int           `json:"stock"`
	Status    ArticleStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (a *Article) IsAvailable() bool {
	return a != nil && a.Status == ArticleStatusAvailable && a.Stock > 0
}
