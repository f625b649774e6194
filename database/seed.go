package database

import (
	"fmt"
	"log/slog"
	"time"

	"ecodrive-backend/models"

	"gorm.io/gorm"
)

// Seed 创建示例数据（仅在开发模式下）. It does nothing when locations exist.
func Seed(db *gorm.DB, now time.Time, log *slog.Logger) error {
	var count int64
	if err := db.Model(&models.Location{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("database already has data, skipping seed")
		return nil
	}

	f := func(v float64) *float64 { return &v }
	locations := []models.Location{
		{Name: "Riverside Park", Area: "Riverside", Region: "North", AQI: f(182), GarbageLevel: models.GarbageHigh, PlantCount: 4, HasPond: true},
		{Name: "Old Market", Area: "Market", Region: "North", AQI: f(164), GarbageLevel: models.GarbageHigh, PlantCount: 2},
		{Name: "Station Road", Area: "Station", Region: "North", AQI: f(158), GarbageLevel: models.GarbageMedium, PlantCount: 10},
		{Name: "Lake View", Area: "Lakeside", Region: "North", AQI: f(131), GarbageLevel: models.GarbageMedium, PlantCount: 25, HasPond: true},
		{Name: "Hill Garden", Area: "Hills", Region: "North", AQI: f(88), GarbageLevel: models.GarbageLow, PlantCount: 40},
		{Name: "Harbour Front", Area: "Harbour", Region: "South", AQI: f(171), GarbageLevel: models.GarbageMedium, PlantCount: 6},
		{Name: "Mill Lane", Area: "Mills", Region: "South", AQI: f(142), GarbageLevel: models.GarbageHigh, PlantCount: 12},
		{Name: "School Grounds", Area: "Campus", Region: "South", GarbageLevel: models.GarbageLow, PlantCount: 18},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&locations).Error; err != nil {
			return fmt.Errorf("创建示例地点失败: %w", err)
		}

		users := []models.User{
			{Name: "admin", Role: models.RoleAdmin},
			{Name: "north-lead", Role: models.RoleIncharge, Region: "North"},
			{Name: "asha", Role: models.RoleUser, Region: "North", Area: "Riverside"},
			{Name: "ravi", Role: models.RoleUser, Region: "South", SubscribedAreas: []string{"Lake View"}},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("创建示例用户失败: %w", err)
		}

		drives := []models.Drive{
			{LocationID: locations[2].ID, Region: "North", Date: now.AddDate(0, 0, -40), TimeSlot: models.SlotMorning, Status: models.DriveCompleted},
			{LocationID: locations[5].ID, Region: "South", Date: now.AddDate(0, 0, -3), TimeSlot: models.SlotMidday, Status: models.DriveCompleted},
		}
		if err := tx.Create(&drives).Error; err != nil {
			return fmt.Errorf("创建示例清洁活动失败: %w", err)
		}

		log.Info("seed data created", "locations", len(locations), "users", len(users))
		return nil
	})
}
