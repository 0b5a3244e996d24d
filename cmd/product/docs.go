package main

// @title Product Service API
// @version 1.0
// @description Marketplace product microservice handling listings, search and favorites
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/micro-marketplace
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/micro-marketplace/blob/main/LICENSE

// @host localhost:8081
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Products
// @tag.description Product catalog endpoints

// @tag.name Favorites
// @tag.description Favorite management endpoints

// @tag.name Health
// @tag.description Health check endpoints
