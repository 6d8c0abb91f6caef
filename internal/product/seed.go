package product

import "github.com/shopspring/decimal"

const unsplash = "https://images.unsplash.com/"

// DefaultCatalog is the sample catalog loaded when SEED_CATALOG is enabled.
func DefaultCatalog() []Product {
	return []Product{
		{
			ID:            1,
			Name:          "Wireless Bluetooth Headphones",
			Description:   "High-quality wireless headphones with noise cancellation and 30-hour battery life.",
			Price:         decimal.NewFromInt(8299),
			Image:         unsplash + "photo-1505740420928-5e560c06d30e?w=400&h=400&fit=crop",
			Category:      "Electronics",
			Brand:         "AudioTech",
			StockQuantity: 50,
			Active:        true,
		},
		{
			ID:            2,
			Name:          "Smart Fitness Watch",
			Description:   "Advanced fitness tracker with heart rate monitoring, GPS, and waterproof design.",
			Price:         decimal.NewFromInt(20799),
			Image:         unsplash + "photo-1523275335684-37898b6baf30?w=400&h=400&fit=crop",
			Category:      "Wearables",
			Brand:         "FitTech",
			StockQuantity: 30,
			Active:        true,
		},
		{
			ID:            3,
			Name:          "Portable Laptop Stand",
			Description:   "Ergonomic aluminum laptop stand with adjustable height and cooling design.",
			Price:         decimal.NewFromInt(4149),
			Image:         unsplash + "photo-1527864550417-7fd91fc51a46?w=400&h=400&fit=crop",
			Category:      "Accessories",
			Brand:         "ErgoDesk",
			StockQuantity: 75,
			Active:        true,
		},
		{
			ID:            4,
			Name:          "Wireless Charging Pad",
			Description:   "Fast wireless charging pad compatible with all Qi-enabled devices.",
			Price:         decimal.NewFromInt(2499),
			Image:         unsplash + "photo-1586953208448-b95a79798f07?w=400&h=400&fit=crop",
			Category:      "Accessories",
			Brand:         "ChargeTech",
			StockQuantity: 100,
			Active:        true,
		},
		{
			ID:            5,
			Name:          "USB-C Hub",
			Description:   "7-in-1 USB-C hub with HDMI, USB 3.0, SD card reader, and PD charging.",
			Price:         decimal.NewFromInt(6649),
			Image:         unsplash + "photo-1625842268584-8f3296236761?w=400&h=400&fit=crop",
			Category:      "Accessories",
			Brand:         "ConnectPro",
			StockQuantity: 40,
			Active:        true,
		},
		{
			ID:            6,
			Name:          "Mechanical Keyboard",
			Description:   "RGB backlit mechanical keyboard with blue switches and programmable keys.",
			Price:         decimal.NewFromInt(10799),
			Image:         unsplash + "photo-1541140532154-b024d705b90a?w=400&h=400&fit=crop",
			Category:      "Peripherals",
			Brand:         "KeyMaster",
			StockQuantity: 25,
			Active:        true,
		},
		{
			ID:            7,
			Name:          "4K Webcam",
			Description:   "Ultra HD webcam with auto-focus, built-in microphone, and privacy shutter.",
			Price:         decimal.NewFromInt(7499),
			Image:         unsplash + "photo-1587825140708-dfaf72ae4b04?w=400&h=400&fit=crop",
			Category:      "Electronics",
			Brand:         "VisionPro",
			StockQuantity: 35,
			Active:        true,
		},
		{
			ID:            8,
			Name:          "Bluetooth Speaker",
			Description:   "Portable waterproof Bluetooth speaker with 360-degree sound and 12-hour battery.",
			Price:         decimal.NewFromInt(5829),
			Image:         unsplash + "photo-1608043152269-423dbba4e7e1?w=400&h=400&fit=crop",
			Category:      "Audio",
			Brand:         "SoundWave",
			StockQuantity: 60,
			Active:        true,
		},
	}
}
