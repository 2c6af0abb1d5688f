// Package seed holds the default floor plan, menu, and accounts loaded into
// an empty store on first start.
package seed

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sudarshan2323/Resto/internal/enum"
	"github.com/Sudarshan2323/Resto/internal/model"
)

func generateTables(prefix string, count int, category string) []model.Table {
	tables := make([]model.Table, 0, count)
	for i := 1; i <= count; i++ {
		tables = append(tables, model.Table{
			ID:          fmt.Sprintf("%s%d", strings.ToLower(prefix), i),
			Name:        fmt.Sprintf("%s%d", prefix, i),
			Category:    category,
			Status:      enum.TableStatusAvailable,
			CurrentBill: decimal.Zero,
		})
	}
	return tables
}

// DefaultTables is the restaurant floor plan: 9 dine-in, 10 terrace,
// 5 gazebo, 6 banquet, 5 parcel.
func DefaultTables() []model.Table {
	var tables []model.Table
	tables = append(tables, generateTables("D", 9, enum.TableCategoryDineIn)...)
	tables = append(tables, generateTables("T", 10, enum.TableCategoryTerrace)...)
	tables = append(tables, generateTables("G", 5, enum.TableCategoryGazebo)...)
	tables = append(tables, generateTables("B", 6, enum.TableCategoryBanquet)...)
	tables = append(tables, generateTables("P", 5, enum.TableCategoryParcel)...)
	return tables
}

// DefaultMenu is the starting catalog.
func DefaultMenu() []model.MenuItem {
	return []model.MenuItem{
		{ID: "m1", Name: "Paneer Tikka", Price: decimal.NewFromInt(250), Category: "Starters"},
		{ID: "m1a", Name: "Chicken 65", Price: decimal.NewFromInt(320), Category: "Starters"},
		{ID: "m2", Name: "Dal Makhani", Price: decimal.NewFromInt(300), Category: "Main Course"},
		{ID: "m2a", Name: "Butter Chicken", Price: decimal.NewFromInt(450), Category: "Main Course"},
		{ID: "m3", Name: "Garlic Naan", Price: decimal.NewFromInt(70), Category: "Main Course"},
		{ID: "m4", Name: "Brownie", Price: decimal.NewFromInt(150), Category: "Desserts"},
		{ID: "m4a", Name: "Gulab Jamun", Price: decimal.NewFromInt(120), Category: "Desserts"},
		{ID: "m5", Name: "Coke", Price: decimal.NewFromInt(60), Category: "Beverages"},
		{ID: "m5a", Name: "Fresh Lime Soda", Price: decimal.NewFromInt(80), Category: "Beverages"},
	}
}

// DefaultUsers builds the initial accounts with freshly hashed passwords.
func DefaultUsers(adminPassword, captainPassword string) ([]model.User, error) {
	adminHash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	captainHash, err := bcrypt.GenerateFromPassword([]byte(captainPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash captain password: %w", err)
	}
	return []model.User{
		{
			ID:             "1",
			Email:          "admin@resto.com",
			HashedPassword: string(adminHash),
			Name:           "Admin User",
			Role:           enum.UserRoleAdmin,
		},
		{
			ID:             "2",
			Email:          "sub@resto.com",
			HashedPassword: string(captainHash),
			Name:           "Captain Jack",
			Role:           enum.UserRoleCaptain,
		},
	}, nil
}
