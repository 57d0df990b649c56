package models

// Category is the bank-provided spending category of a transaction.
type Category string

const (
	CategoryGroceries     Category = "Groceries"
	CategoryPublicTransit Category = "Public Transit"
	CategoryRideShare     Category = "Ride Share"
	CategoryGas           Category = "Gas"
	CategoryRestaurant    Category = "Restaurant"
	CategoryCoffeeShop    Category = "Coffee Shop"
	CategoryUtilities     Category = "Utilities"
	CategoryAir           Category = "Air"
	CategoryShopping      Category = "Shopping"
	CategoryOther         Category = "Other"
)
