package model

// StockInfo is one row of the stocks catalog collection.
type StockInfo struct {
	StockCode   string `bson:"stock_code" json:"stock_code"`
	StockName   string `bson:"stock_name" json:"stock_name"`
	IsinCode    string `bson:"isin_code" json:"isin_code"`
	TargetStock int    `bson:"target_stock" json:"target_stock"` // 1 = included in batch runs
}
