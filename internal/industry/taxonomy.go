package industry

// Industry is one taxonomy entry. English keywords match case-insensitively,
// Japanese keywords match exactly.
type Industry struct {
	Label string
	EN    []string
	JA    []string
}

// DefaultTaxonomy is the built-in industry list. Declaration order breaks
// keyword-count ties: an earlier entry keeps the win unless a later one
// strictly beats it.
var DefaultTaxonomy = []Industry{
	{
		Label: "technology",
		EN: []string{"IT", "software", "technology", "tech", "developer", "development",
			"ai", "artificial intelligence", "machine learning", "cloud", "saas",
			"web development", "app development", "programming", "system integration",
			"information technology", "digital", "cyber", "data science"},
		JA: []string{"IT", "情報技術", "ソフトウェア", "テクノロジー", "システム開発",
			"クラウド", "AI", "人工知能", "情報システム", "システムインテグレーション",
			"ウェブ開発", "アプリ開発", "プログラミング", "デジタル"},
	},
	{
		Label: "finance",
		EN: []string{"finance", "financial", "banking", "bank", "insurance", "investment",
			"securities", "asset management", "mortgage", "credit", "fintech",
			"wealth management", "trading", "forex"},
		JA: []string{"金融", "銀行", "保険", "証券", "投資", "資産運用", "ファイナンス",
			"信用金庫", "信用組合", "証券会社", "ファイナンシャル"},
	},
	{
		Label: "retail",
		EN: []string{"retail", "shop", "store", "ecommerce", "e-commerce", "online",
			"shopping", "merchandise", "commerce", "sales", "department store",
			"supermarket", "wholesale"},
		JA: []string{"小売", "ショップ", "店舗", "EC", "ECサイト", "オンラインショップ",
			"通販", "ネットショップ", "百貨店", "スーパー", "卸売"},
	},
	{
		Label: "healthcare",
		EN: []string{"healthcare", "health", "medical", "medicine", "hospital", "clinic",
			"pharma", "pharmaceutical", "drug", "therapy", "wellness", "nursing",
			"dental", "diagnostic", "biotech"},
		JA: []string{"医療", "病院", "クリニック", "ヘルスケア", "製薬", "薬品", "医療機器",
			"診療所", "医院", "薬局", "歯科", "バイオテック"},
	},
	{
		Label: "education",
		EN: []string{"education", "school", "university", "college", "training", "academy",
			"learning", "course", "tutor", "educational", "elearning", "online learning"},
		JA: []string{"教育", "学校", "大学", "学習", "トレーニング", "アカデミー", "スクール",
			"塾", "予備校", "専門学校", "オンライン学習"},
	},
	{
		Label: "manufacturing",
		EN: []string{"manufacturing", "manufacturer", "factory", "production", "industrial",
			"maker", "fabrication", "assembly", "machinery"},
		JA: []string{"製造", "工場", "生産", "工業", "メーカー", "製造業", "生産管理",
			"工場管理", "部品製造"},
	},
	{
		Label: "construction",
		EN: []string{"construction", "builder", "building", "civil engineering", "contractor",
			"engineering", "infrastructure", "development"},
		JA: []string{"建設", "建築", "工事", "土木", "エンジニアリング", "建築設計",
			"施工管理", "土木工事"},
	},
	{
		Label: "real_estate",
		EN: []string{"real estate", "property", "realty", "housing", "apartment", "real-estate",
			"land", "rent", "rental", "real estate agent"},
		JA: []string{"不動産", "住宅", "マンション", "土地", "賃貸", "不動産管理",
			"宅地建物取引", "不動産仲介"},
	},
	{
		Label: "food_beverage",
		EN: []string{"food", "beverage", "restaurant", "dining", "cafe", "café", "catering",
			"food service", "bakery", "food manufacturing", "restaurant group"},
		JA: []string{"食品", "レストラン", "飲食", "外食", "飲料", "フードサービス",
			"食品製造", "食品加工", "カフェ", "ベーカリー"},
	},
	{
		Label: "automotive",
		EN: []string{"automotive", "automobile", "car", "vehicle", "auto", "mobility",
			"auto parts", "dealership", "fleet"},
		JA: []string{"自動車", "車", "カー", "モビリティ", "自動車関連", "自動車部品",
			"自動車販売", "自動車修理"},
	},
	{
		Label: "energy",
		EN: []string{"energy", "power", "electric", "electricity", "renewable energy",
			"solar", "wind", "generation", "utility", "oil", "gas", "utility company"},
		JA: []string{"エネルギー", "電力", "電気", "再生可能エネルギー", "太陽光", "風力",
			"発電", "電力会社", "ガス"},
	},
	{
		Label: "logistics",
		EN: []string{"logistics", "transportation", "shipping", "delivery", "supply chain",
			"transport", "warehouse", "distribution"},
		JA: []string{"物流", "運輸", "配送", "輸送", "サプライチェーン", "運送",
			"倉庫", "物流センター"},
	},
	{
		Label: "consulting",
		EN: []string{"consulting", "consultant", "advisory", "advising", "management consulting",
			"business consultant", "strategy", "strategic"},
		JA: []string{"コンサルティング", "コンサル", "アドバイザリー", "経営コンサル",
			"経営相談", "コンサルタント"},
	},
	{
		Label: "media",
		EN: []string{"media", "publishing", "broadcast", "entertainment", "advertising",
			"news", "television", "radio", "production"},
		JA: []string{"メディア", "出版", "放送", "エンターテインメント", "広告",
			"広告代理店", "テレビ", "ラジオ"},
	},
	{
		Label: "telecommunications",
		EN: []string{"telecommunications", "telecom", "communication", "mobile", "wireless",
			"phone", "network", "internet service", "isp"},
		JA: []string{"通信", "テレコム", "モバイル", "無線", "通信事業", "通信会社",
			"携帯電話"},
	},
	{
		Label: "hospitality",
		EN: []string{"hotel", "hospitality", "resort", "accommodation", "lodging",
			"tourism", "travel", "tour operator"},
		JA: []string{"ホテル", "ホスピタリティ", "リゾート", "宿泊", "観光",
			"旅行", "ツアーオペレーター"},
	},
	{
		Label: "entertainment",
		EN: []string{"entertainment", "gaming", "game", "esports", "music", "movie",
			"film", "studio", "production"},
		JA: []string{"エンターテインメント", "ゲーム", "音楽", "映画", "スタジオ",
			"エスポーツ"},
	},
	{
		Label: "non_profit",
		EN: []string{"non-profit", "nonprofit", "ngo", "charity", "charitable", "foundation",
			"association", "volunteer"},
		JA: []string{"非営利", "npo", "ngo", "慈善", "チャリティ", "財団", "協会"},
	},
}

// schemaTypeMapping maps lowercased schema.org @type values to industry
// labels. An empty value marks a type too generic to classify.
var schemaTypeMapping = map[string]string{
	"softwareapplication":     "technology",
	"websiteapplication":      "technology",
	"computersoftware":        "technology",
	"financialservice":        "finance",
	"bank":                    "finance",
	"insuranceagency":         "finance",
	"investmentservice":       "finance",
	"store":                   "retail",
	"onlinestore":             "retail",
	"shoppingcenter":          "retail",
	"hospital":                "healthcare",
	"physicianoffice":         "healthcare",
	"dentistoffice":           "healthcare",
	"veterinarycare":          "healthcare",
	"pharmacy":                "healthcare",
	"educationalorganization": "education",
	"school":                  "education",
	"university":              "education",
	"elementaryschool":        "education",
	"middleschool":            "education",
	"highschool":              "education",
	"collegeoruniversity":     "education",
	"localizedschool":         "education",
	"manufacturer":            "manufacturing",
	"contractorservice":       "construction",
	"realestateagent":         "real_estate",
	"residentialarea":         "real_estate",
	"apartmentcomplex":        "real_estate",
	"restaurant":              "food_beverage",
	"cafe":                    "food_beverage",
	"bakery":                  "food_beverage",
	"foodestablishment":       "food_beverage",
	"automobiledealership":    "automotive",
	"automobilerepair":        "automotive",
	"gasstation":              "energy",
	"shippingservice":         "logistics",
	"storageservice":          "logistics",
	"professionalservice":     "consulting",
	"localbus":                "hospitality",
	"hotel":                   "hospitality",
	"broadcaster":             "media",
	"creativework":            "media",
	"televisionstation":       "media",
	"radiochannel":            "media",
	"localbusiness":           "",
	"organization":            "",
}
