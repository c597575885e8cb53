package heuristics

//
// FIXED SIGNAL TABLES
//

// shortenerDomains hides the real destination behind a redirect.
var shortenerDomains = map[string]bool{
	"bit.ly":     true,
	"tinyurl.com": true,
	"goo.gl":     true,
	"t.co":       true,
	"ow.ly":      true,
	"is.gd":      true,
	"buff.ly":    true,
	"rb.gy":      true,
	"cutt.ly":    true,
	"rebrand.ly": true,
	"shorturl.at": true,
	"t.ly":       true,
}

// suspiciousTLDs see disproportionate abuse relative to legitimate traffic.
var suspiciousTLDs = map[string]bool{
	"tk":   true,
	"ml":   true,
	"ga":   true,
	"cf":   true,
	"gq":   true,
	"xyz":  true,
	"top":  true,
	"club": true,
	"work": true,
	"zip":  true,
	"mov":  true,
}

// suspiciousSubdomainPrefixes mimic authentication flows on lookalike hosts.
var suspiciousSubdomainPrefixes = []string{
	"secure-",
	"verify-",
	"account-",
	"login-",
	"signin-",
	"update-",
	"confirm-",
	"auth-",
	"wallet-",
}

// placeholderTexts are anchor texts that were never meant to ship.
var placeholderTexts = []string{
	"example.com",
	"domain.com",
	"yourdomain.com",
	"yoursite.com",
	"website.com",
	"lorem ipsum",
}

// urgencyPhrases are social-engineering pressure patterns in link text.
var urgencyPhrases = []string{
	"urgent",
	"act now",
	"act immediately",
	"verify your account",
	"account suspended",
	"account locked",
	"confirm your identity",
	"limited time",
	"expires today",
	"click here now",
	"unusual activity",
	"payment failed",
}

// brandTargets is the fixed set of brands the typosquatting detector
// compares candidate domains against.
var brandTargets = []string{
	"google",
	"youtube",
	"facebook",
	"instagram",
	"whatsapp",
	"microsoft",
	"apple",
	"amazon",
	"paypal",
	"netflix",
	"twitter",
	"linkedin",
	"github",
	"dropbox",
	"adobe",
	"spotify",
	"telegram",
	"discord",
	"steam",
	"ebay",
	"chase",
	"wellsfargo",
	"coinbase",
	"binance",
	"outlook",
	"icloud",
}

// substitutionPatterns are multi-character swaps commonly used to fake a
// brand at a glance. Applied in both directions where listed twice.
var substitutionPatterns = [][2]string{
	{"rn", "m"},
	{"m", "rn"},
	{"ci", "gi"},
	{"gi", "ci"},
	{"vv", "w"},
	{"w", "vv"},
	{"0", "o"},
	{"o", "0"},
	{"1", "i"},
	{"i", "1"},
	{"1", "l"},
	{"l", "1"},
	{"5", "s"},
	{"s", "5"},
}

// confusablePairs are single-glyph confusions counted by the density check.
// Stored one direction; lookups test both orders.
var confusablePairs = map[[2]rune]bool{
	{'o', '0'}: true,
	{'l', '1'}: true,
	{'i', '1'}: true,
	{'i', 'l'}: true,
	{'s', '5'}: true,
	{'z', '2'}: true,
	{'b', '8'}: true,
	{'g', '9'}: true,
	{'u', 'v'}: true,
	{'n', 'm'}: true,
	{'e', 'a'}: true,
	{'c', 'e'}: true,
}

// homoglyphPairs map Latin letters to visually identical Cyrillic glyphs.
var homoglyphPairs = map[[2]rune]bool{
	{'a', 'а'}: true,
	{'e', 'е'}: true,
	{'o', 'о'}: true,
	{'p', 'р'}: true,
	{'c', 'с'}: true,
	{'x', 'х'}: true,
	{'y', 'у'}: true,
	{'i', 'і'}: true,
	{'s', 'ѕ'}: true,
	{'j', 'ј'}: true,
	{'h', 'һ'}: true,
	{'k', 'к'}: true,
}

// analyzedMarkers are prefixes the browser extension stamps onto link text
// after a previous pass; seeing one means the link was already scored.
var AnalyzedMarkers = []string{
	"✅",
	"⚠️",
	"🚫",
	"🛡️",
	"[analyzed]",
	"[checked]",
}
