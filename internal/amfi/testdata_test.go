package amfi

const sampleFeed = "Scheme Code;ISIN Div Payout/ ISIN Growth;ISIN Div Reinvestment;Scheme Name;Net Asset Value;Date\r\n" +
	"\r\n" +
	"Open Ended Schemes(Equity Scheme - Large Cap Fund)\r\n" +
	"\r\n" +
	"\r\n" +
	"Axis Mutual Fund\r\n" +
	"\r\n" +
	"120465;INF846K01DP8;-;Axis Bluechip Fund - Direct Plan - Growth;58.1200;13-Jan-2023\r\n" +
	"120466;INF846K01DQ6;INF846K01DR4;Axis Bluechip Fund - Direct Plan - IDCW;20.5100;13-Jan-2023\r\n" +
	"\r\n" +
	"HDFC Mutual Fund\r\n" +
	"\r\n" +
	"118989;INF179K01XQ0;-;HDFC Gold Fund (formerly HDFC Gold ETF FoF) - Growth Option - Direct Plan;N.A.;13-Jan-2023\r\n" +
	"119062;INF000X01234;-;HDFC Flexi Cap Fund-Direct Plan-Growth Option;1100.2500;13-Jan-2023\r\n" +
	"\r\n"
