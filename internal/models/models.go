package models

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&User{},
		&RefreshToken{},
		&AdminLink{},
		&Product{},
		&NavigationItem{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&CoinWallet{},
		&CoinTransaction{},
		&ProSubscription{},
	}
}
