package models

// DefaultSensors is the deployed noise meter network.
var DefaultSensors = []Sensor{
	{ID: "15490", Label: "Singapore Sports School"},
	{ID: "16034", Label: "BLK 120 Serangoon North Ave 1"},
	{ID: "16041", Label: "BLK 838 Hougang Central"},
	{ID: "14542", Label: "BLK 558 Jurong West Street 42"},
	{ID: "15725", Label: "Jurong Safra, Block C"},
	{ID: "16032", Label: "AMA KENG SITE"},
	{ID: "16045", Label: "BLK 19 Balam Road"},
	{ID: "15820", Label: "Norcom II Tower 4"},
	{ID: "15821", Label: "Blk 444 Choa Chu Kang Avenue 4"},
	{ID: "15999", Label: "BLK 654B Punggol Drive"},
	{ID: "16026", Label: "BLK 132B Tengah Garden Avenue"},
	{ID: "16004", Label: "BLK 206A Punggol Place"},
	{ID: "16005", Label: "Woodlands 11"},
}
