package synthetic

var polymarketCatalogue = []seedMarket{
	{"Will Bitcoin be above $100k by March 1, 2026?", "Crypto", 0.975},
	{"Will it rain in NYC tomorrow?", "Weather", 0.978},
	{"Will the S&P 500 close above 6000 this week?", "Business", 0.972},
	{"Will Lakers win tonight's game?", "Sports", 0.976},
	{"Will Fed cut rates in March?", "Politics", 0.971},
	{"Will ETH reach $4000 by end of month?", "Crypto", 0.979},
	{"Will new iPhone be announced this month?", "Business", 0.973},
	{"Will unemployment stay below 4%?", "Politics", 0.977},
	{"Will Dow Jones hit new ATH this week?", "Business", 0.974},
	{"Will Tesla stock close above $250 today?", "Business", 0.978},
	// fuera de banda
	{"Will it snow in Miami tomorrow?", "Weather", 0.02},
	{"Will BTC reach $200k by EOY?", "Crypto", 0.45},
	{"Will market crash tomorrow?", "Business", 0.15},
	{"Coin flip - heads?", "Entertainment", 0.50},
}

// Precios en centavos.
var kalshiCatalogue = []seedMarket{
	{"Fed cuts rates in March 2026?", "Politics", 97.5},
	{"S&P 500 above 6000 by end of week?", "Finance", 97.8},
	{"Unemployment below 4% in February?", "Economics", 97.2},
	{"Bitcoin above $100k by March?", "Crypto", 97.6},
	{"Tesla stock above $300 by April?", "Stocks", 97.9},
	{"Gold above $2800 by end of month?", "Commodities", 97.3},
	{"Will it snow in Denver tomorrow?", "Weather", 97.7},
	{"Biden approval above 45% in March?", "Politics", 97.4},
	{"Inflation below 3% in February?", "Economics", 97.1},
	{"Oil prices above $80 by March?", "Commodities", 97.8},
	// fuera de banda
	{"Market crash tomorrow?", "Finance", 5.0},
	{"Bitcoin to $200k by EOY?", "Crypto", 35.0},
	{"Recession in 2026?", "Economics", 25.0},
}
