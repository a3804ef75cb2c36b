package services

import "fmt"

// stockNames maps KRX ticker codes to display names, used when the provider
// cannot be reached for instrument info.
var stockNames = map[string]string{
	"005930": "삼성전자",
	"000660": "SK하이닉스",
	"373220": "LG에너지솔루션",
	"207940": "삼성바이오로직스",
	"035420": "NAVER",
	"006400": "삼성SDI",
	"005380": "현대차",
	"035720": "카카오",
	"005490": "POSCO홀딩스",
	"000270": "기아",
	"051910": "LG화학",
	"068270": "셀트리온",
	"012450": "한화에어로스페이스",
	"011200": "HMM",
	"003490": "대한항공",
	"096770": "SK이노베이션",
	"012330": "현대모비스",
	"090430": "아모레퍼시픽",
	"033780": "KT&G",
	"066570": "LG전자",
	"034020": "두산에너빌리티",
	"377300": "카카오페이",
	"259960": "크래프톤",
	"017670": "SK텔레콤",
	"015760": "한국전력",
	"097950": "CJ제일제당",
	"086790": "하나금융지주",
	"105560": "KB금융",
	"055550": "신한지주",
	"009150": "삼성전기",
	"247540": "에코프로비엠",
	"000880": "한화",
	"004020": "현대제철",
	"009830": "한화솔루션",
	"326030": "SK바이오팜",
	"078930": "GS",
	"010950": "S-Oil",
	"267250": "HD현대",
	"000810": "삼성화재",
	"005940": "NH투자증권",
	"003550": "LG",
	"030200": "KT",
	"036570": "엔씨소프트",
	"251270": "넷마블",
	"042660": "한화오션",
	"032640": "LG유플러스",
	"034730": "SK",
	"021240": "코웨이",
	"016360": "삼성증권",
	"086520": "에코프로",
}

// DisplayName returns the display name for a ticker, falling back to a
// generated label for unknown codes.
func DisplayName(ticker string) string {
	if name, ok := stockNames[ticker]; ok {
		return name
	}
	return fmt.Sprintf("%s 종목", ticker)
}

// DefaultWarmupUniverse is the fixed instrument set pre-loaded at startup.
var DefaultWarmupUniverse = []string{
	"005930", "000660", "373220", "207940", "035420",
	"006400", "005380", "035720", "005490", "000270",
	"051910", "068270", "012450", "011200", "003490",
	"096770", "012330", "090430", "033780", "066570",
	"034020", "377300", "259960", "017670", "015760",
	"097950", "086790", "105560", "055550", "009150",
	"247540", "000880", "004020", "009830", "326030",
	"078930", "010950", "267250", "000810", "005940",
}
