package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"atelier/config"
	"atelier/controllers"
	"atelier/middleware"
	"atelier/models"
	"atelier/utils"

	"github.com/go-michi/michi"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/handlers"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func main() {
	// Load environment variables
	config.LoadEnv()

	connStr := config.GetEnv("DATABASE_CONNECTION_STR", "")
	if connStr == "" {
		log.Fatal("DATABASE_CONNECTION_STR not set in .env file")
	}
	if config.GetEnv("JWT_SECRET", "") == "" {
		log.Fatal("JWT_SECRET not set in .env file")
	}

	// Connect to the database
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	defer db.Close()

	// Set global db variable in controllers
	controllers.SetDB(db)

	// Handle migrations
	mig, err := migrate.New(
		"file://"+config.GetEnv("MIGRATIONS_ROOT", "database/migrations"),
		connStr,
	)
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	if err := mig.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(utils.ErrorWithTrace(err, err.Error()))
		}
		log.Printf("migrations: %s", err.Error())
	}

	// Initialize the router and define routes
	r := michi.NewRouter()
	r.Route("/api/v1", func(sub *michi.Router) {
		// Catalog: list/retrieve are public, mutations need catalog roles
		sub.HandleFunc("GET products", controllers.ListProducts)
		sub.HandleFunc("GET products/{id}", controllers.GetProduct)
		sub.Handle("POST products", manageCatalog(controllers.CreateProduct))
		sub.Handle("PUT products/{id}", manageCatalog(controllers.UpdateProduct))
		sub.Handle("PATCH products/{id}", manageCatalog(controllers.UpdateProduct))
		sub.Handle("DELETE products/{id}", manageCatalog(controllers.DeleteProduct))

		// Engagement
		sub.Handle("POST products/{id}/like", middleware.Authenticate(http.HandlerFunc(controllers.LikeProduct)))
		sub.Handle("POST products/{id}/view", middleware.MaybeAuthenticate(http.HandlerFunc(controllers.TrackProductView)))

		// Offers
		sub.HandleFunc("GET offers", controllers.ListOffers)
		sub.HandleFunc("GET offers/active", controllers.ActiveOffers)
		sub.HandleFunc("GET offers/{id}", controllers.GetOffer)
		sub.Handle("POST offers", manageCatalog(controllers.CreateOffer))
		sub.Handle("PUT offers/{id}", manageCatalog(controllers.UpdateOffer))
		sub.Handle("DELETE offers/{id}", manageCatalog(controllers.DeleteOffer))

		// Orders
		sub.Handle("GET orders", middleware.Authenticate(http.HandlerFunc(controllers.ListOrders)))
		sub.Handle("POST orders", middleware.Authenticate(http.HandlerFunc(controllers.CreateOrder)))
		sub.Handle("GET orders/{id}", middleware.Authenticate(http.HandlerFunc(controllers.GetOrder)))
		sub.Handle("PATCH orders/{id}/update_status", manageOrders(controllers.UpdateOrderStatus))

		// Wishlist
		sub.Handle("GET wishlist", middleware.Authenticate(http.HandlerFunc(controllers.ListWishlist)))
		sub.Handle("POST wishlist", middleware.Authenticate(http.HandlerFunc(controllers.AddToWishlist)))
		sub.Handle("DELETE wishlist/{id}", middleware.Authenticate(http.HandlerFunc(controllers.RemoveFromWishlist)))

		// Reviews
		sub.HandleFunc("GET reviews", controllers.ListReviews)
		sub.Handle("POST reviews", middleware.Authenticate(http.HandlerFunc(controllers.CreateReview)))

		// Users
		sub.HandleFunc("POST users/register", controllers.Register)
		sub.Handle("GET users/profile", middleware.Authenticate(http.HandlerFunc(controllers.Profile)))

		// Analytics
		sub.Handle("GET analytics/sales", viewAnalytics(controllers.SalesAnalytics))
		sub.Handle("GET analytics/product/{id}", viewAnalytics(controllers.ProductAnalytics))

		// Auth
		sub.HandleFunc("POST auth/login", controllers.Login)
		sub.HandleFunc("POST auth/refresh", controllers.Refresh)
	})

	// Enable CORS
	corsOptions := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)

	port := config.GetEnv("PORT", "8000")
	fmt.Printf("Server running on port %s 🚀\n", port)
	if err := http.ListenAndServe(":"+port, corsOptions(r)); err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
}

func manageCatalog(h http.HandlerFunc) http.Handler {
	return middleware.RequireRole((models.Role).CanManageCatalog, h)
}

func manageOrders(h http.HandlerFunc) http.Handler {
	return middleware.RequireRole((models.Role).CanManageOrders, h)
}

func viewAnalytics(h http.HandlerFunc) http.Handler {
	return middleware.RequireRole((models.Role).CanViewAnalytics, h)
}
