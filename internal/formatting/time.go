package formatting

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/tutor_scheduler/internal/model"
)

// FormatDate форматирует только дату
func FormatDate(t time.Time) string {
	return t.Format("02.01.2006")
}

// FormatRange дата с днём недели и интервал
func FormatRange(r model.TimeRange) string {
	return fmt.Sprintf("%s (%s) %s", FormatDate(r.Date), GetWeekdayShortName(int(r.Date.Weekday())), r.TimeString())
}

// FormatSession форматирует снимок занятия из бронирования
func FormatSession(s model.Session) string {
	date, err := time.Parse("2006-01-02", s.Date)
	if err != nil {
		return s.Date + " " + s.Time
	}
	return fmt.Sprintf("%s (%s) %s", FormatDate(date), GetWeekdayShortName(int(date.Weekday())), s.Time)
}

// FormatDuration форматирует длительность в минутах
func FormatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%d мин", minutes)
	}
	hours := minutes / 60
	mins := minutes % 60
	if mins == 0 {
		return fmt.Sprintf("%d ч", hours)
	}
	return fmt.Sprintf("%d ч %d мин", hours, mins)
}

// GetWeekdayName возвращает название дня недели на русском
func GetWeekdayName(weekday int) string {
	names := []string{
		"Воскресенье",
		"Понедельник",
		"Вторник",
		"Среда",
		"Четверг",
		"Пятница",
		"Суббота",
	}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return "Неизвестно"
}

// GetWeekdayShortName возвращает краткое название дня недели на русском
func GetWeekdayShortName(weekday int) string {
	names := []string{"Вс", "Пн", "Вт", "Ср", "Чт", "Пт", "Сб"}
	if weekday >= 0 && weekday < len(names) {
		return names[weekday]
	}
	return "?"
}
