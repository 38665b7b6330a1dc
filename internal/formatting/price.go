package formatting

import "fmt"

// FormatPrice форматирует цену из минимальных единиц, без дробной части если она нулевая
func FormatPrice(amount int64, currency string) string {
	if amount%100 == 0 {
		return fmt.Sprintf("%d %s", amount/100, currency)
	}
	return fmt.Sprintf("%d.%02d %s", amount/100, amount%100, currency)
}
