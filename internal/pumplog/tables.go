package pumplog

// Derivation tables for registry fields. These are data, not code: a
// new event type only needs a descriptor entry, never a new decoder.

// basalChangeTypes: why the commanded basal rate changed.
var basalChangeTypes = map[int64]string{
	0: "TimedSegment",
	1: "NewProfile",
	2: "TempRateStart",
	3: "TempRateEnd",
	4: "PumpSuspended",
	5: "PumpResumed",
	6: "PumpShutdown",
	7: "AlgorithmAdjustment",
}

// suspensionReasonFlags: bit position -> reason, reported by
// PumpingSuspended as a bitmask.
var suspensionReasonFlags = []string{
	"UserRequest",
	"Alarm",
	"Malfunction",
	"OcclusionDetected",
	"CartridgeRemoved",
	"SiteChange",
	"AutoSuspend",
	"LowGlucoseSuspend",
}

var bgSources = map[int64]string{
	0: "Manual",
	1: "Meter",
	2: "Cgm",
}

var bolusTypes = map[int64]string{
	0: "Standard",
	1: "Extended",
	2: "Quick",
}

var yesNo = map[int64]string{
	0: "No",
	1: "Yes",
}

// bolusOptionFlags: bit position -> option, reported by
// BolusRequestedMsg2 as a bitmask.
var bolusOptionFlags = []string{
	"Override",
	"DeclinedCorrection",
	"AutoPopulated",
	"ExtendedPortionNow",
}

// trendDirections follow the target store's direction vocabulary so
// readings pass through without remapping.
var trendDirections = map[int64]string{
	0: "NotComputable",
	1: "DoubleUp",
	2: "SingleUp",
	3: "FortyFiveUp",
	4: "Flat",
	5: "FortyFiveDown",
	6: "SingleDown",
	7: "DoubleDown",
}

var cgmAlertCodes = map[int64]string{
	0:  "FixedLowGlucose",
	1:  "HighGlucose",
	2:  "LowGlucose",
	3:  "RiseRate",
	4:  "FallRate",
	5:  "RapidRise",
	6:  "RapidFall",
	7:  "OutOfRange",
	8:  "SensorError",
	9:  "SensorExpiring",
	10: "SensorExpired",
	11: "CalibrationRequired",
	12: "TransmitterLowBattery",
}

var cgmVendors = map[int64]string{
	0: "Generic",
	1: "Dexcom",
	2: "Libre",
}

var cgmStopReasons = map[int64]string{
	0: "UserRequest",
	1: "SensorExpired",
	2: "SensorFailed",
	3: "TransmitterFailed",
	4: "PumpCommanded",
}

var userModes = map[int64]string{
	0: "Sleep",
	1: "Exercise",
}

var userModeActions = map[int64]string{
	0: "Stop",
	1: "Start",
	2: "StopAll",
}

var controlIQStates = map[int64]string{
	0: "Off",
	1: "On",
	2: "SleepSchedule",
}

var occlusionTypes = map[int64]string{
	0: "Cartridge",
	1: "Tubing",
	2: "Site",
}

// alertCodes: pump alert ids (non-fatal attention conditions). Raw
// codes without an entry fall back to a synthetic "UnknownAlertN".
var alertCodes = map[int64]string{
	0:  "LowInsulin",
	1:  "EmptyCartridge",
	2:  "LowPumpBattery",
	3:  "VeryLowPumpBattery",
	4:  "IncompleteBolus",
	5:  "IncompleteTempRate",
	6:  "IncompleteCartridgeChange",
	7:  "DataError",
	8:  "AutoOffWarning",
	9:  "MaxBasalRate",
	10: "MaxHourlyBolus",
	11: "MaxDailyBolus",
	12: "SiteChangeReminder",
	13: "MissedMealReminder",
	14: "AfterBolusBgReminder",
	15: "PowerSourceConnected",
	16: "PowerSourceRemoved",
	17: "TransmitterExpiring",
	18: "DeviceConnectionLost",
}

// AlarmCodes is the shared dictionary of pump alarm ids (delivery has
// stopped or the device needs immediate attention). Shared across every
// alarm-carrying event type, unlike the per-field enum tables.
var AlarmCodes = map[int64]string{
	0:  "CartridgeAlarm",
	1:  "CartridgeRemoved",
	2:  "OcclusionAlarm",
	3:  "PumpResetAlarm",
	4:  "EmptyCartridgeAlarm",
	5:  "TransmitterError",
	6:  "AutoOffAlarm",
	7:  "TemperatureAlarm",
	8:  "BatteryDepletedAlarm",
	9:  "InvalidDateTimeAlarm",
	10: "MalfunctionAlarm",
	11: "AltitudeAlarm",
	12: "StuckButtonAlarm",
	13: "ResumePumpAlarm",
	14: "CartridgeErrorAlarm",
}
