package codec

// Command table of the BGA244 remote interface.
var (
	LastError         = Command{Mnemonic: "LERR", QueryArgs: 0, SetArgs: -1, Response: String, What: "last buffered error"}
	Identify          = Command{Mnemonic: "*IDN", QueryArgs: 0, SetArgs: -1, Response: String, What: "identification"}
	Mode              = Command{Mnemonic: "MODE", QueryArgs: 0, SetArgs: 1, Response: Int, What: "analyzer mode"}
	ConcentrationType = Command{Mnemonic: "CTYP", QueryArgs: 0, SetArgs: 1, Response: Int, What: "concentration type"}
	PrimaryGas        = Command{Mnemonic: "GASP", QueryArgs: 0, SetArgs: 1, Response: String, What: "primary gas CAS#"}
	SecondaryGas      = Command{Mnemonic: "GASS", QueryArgs: 0, SetArgs: 1, Response: String, What: "secondary gas CAS#"}
	Ratio             = Command{Mnemonic: "RATO", QueryArgs: 1, SetArgs: -1, Response: Float, What: "gas ratio of channel"}
	Uncertainty       = Command{Mnemonic: "UNCT", QueryArgs: 0, SetArgs: -1, Response: Float, What: "ratio uncertainty"}
	AmbientPressure   = Command{Mnemonic: "PRAM", QueryArgs: 1, SetArgs: -1, Response: Float, What: "ambient pressure"}
	AnalysisPressure  = Command{Mnemonic: "PRES", QueryArgs: 1, SetArgs: -1, Response: Float, What: "analysis pressure"}
	CellTemperature   = Command{Mnemonic: "TCEL", QueryArgs: 1, SetArgs: -1, Response: Float, What: "cell temperature"}
	SpeedOfSound      = Command{Mnemonic: "SOSM", QueryArgs: 0, SetArgs: -1, Response: Float, What: "measured speed of sound"}
	HeaterEnable      = Command{Mnemonic: "BHEN", QueryArgs: 0, SetArgs: 1, Response: Bool, What: "block heater enable"}
	HeaterMaxCurrent  = Command{Mnemonic: "BHMC", QueryArgs: 0, SetArgs: 1, Response: Float, What: "block heater max current"}
	HeaterSetPoint    = Command{Mnemonic: "BHST", QueryArgs: 0, SetArgs: 1, Response: Float, What: "block heater set-point"}
	HeaterCurrent     = Command{Mnemonic: "BHCU", QueryArgs: 0, SetArgs: -1, Response: Float, What: "block heater current"}
	EndplateTemp      = Command{Mnemonic: "TEPL", QueryArgs: 0, SetArgs: -1, Response: Float, What: "endplate temperature"}
	PCBTemp           = Command{Mnemonic: "TPCB", QueryArgs: 0, SetArgs: -1, Response: Float, What: "PCB temperature"}
	Unit              = Command{Mnemonic: "UNIT", QueryArgs: 1, SetArgs: -1, Response: String, What: "unit of category"}
	HomeScreen        = Command{Mnemonic: "HOME", QueryArgs: -1, SetArgs: 0, Response: None, What: "show home screen"}
)

// Commands lists the whole table.
func Commands() []Command {
	return []Command{
		LastError, Identify, Mode, ConcentrationType, PrimaryGas, SecondaryGas,
		Ratio, Uncertainty, AmbientPressure, AnalysisPressure, CellTemperature, SpeedOfSound,
		HeaterEnable, HeaterMaxCurrent, HeaterSetPoint, HeaterCurrent, EndplateTemp, PCBTemp,
		Unit, HomeScreen,
	}
}

// Unit categories, queried by their 1-based index.
const (
	UnitRatio       = 1
	UnitSpeed       = 2
	UnitTemperature = 3
	UnitPressure    = 4
)
