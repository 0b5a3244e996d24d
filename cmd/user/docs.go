package main

// @title User Service API
// @version 1.0
// @description Marketplace user microservice handling registration, login and profiles
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/tair/micro-marketplace
// @contact.email support@example.com

// @license.name MIT
// @license.url https://github.com/tair/micro-marketplace/blob/main/LICENSE

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @tag.name Auth
// @tag.description Authentication endpoints

// @tag.name Users
// @tag.description Public user profile endpoints

// @tag.name Health
// @tag.description Health check endpoints
