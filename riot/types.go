package riot

// Summoner is the summoner-v4 record for a display name lookup.
type Summoner struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int64  `json:"summonerLevel"`
}

// Match is a match-v5 detail record. Participant carries only the fields the
// analyzer consumes; the upstream payload has many more.
type Match struct {
	Metadata Metadata `json:"metadata"`
	Info     Info     `json:"info"`
}

type Metadata struct {
	DataVersion  string   `json:"dataVersion"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type Info struct {
	GameID       int64         `json:"gameId"`
	GameCreation int64         `json:"gameCreation"` // unix millis
	GameDuration int64         `json:"gameDuration"` // seconds
	GameMode     string        `json:"gameMode"`
	GameType     string        `json:"gameType"`
	GameVersion  string        `json:"gameVersion"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
	Teams        []Team        `json:"teams"`
}

type Participant struct {
	PUUID              string `json:"puuid"`
	SummonerName       string `json:"summonerName"`
	RiotIDGameName     string `json:"riotIdGameName"`
	ChampionName       string `json:"championName"`
	TeamID             int    `json:"teamId"`
	Win                bool   `json:"win"`
	TimePlayed         int    `json:"timePlayed"` // seconds
	IndividualPosition string `json:"individualPosition"`
	TeamPosition       string `json:"teamPosition"`
	Role               string `json:"role"`
	Lane               string `json:"lane"`

	Kills   int `json:"kills"`
	Deaths  int `json:"deaths"`
	Assists int `json:"assists"`

	GoldEarned                  int `json:"goldEarned"`
	TotalDamageDealtToChampions int `json:"totalDamageDealtToChampions"`
	TotalMinionsKilled          int `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int `json:"neutralMinionsKilled"`

	WardsPlaced int `json:"wardsPlaced"`
	WardsKilled int `json:"wardsKilled"`
	VisionScore int `json:"visionScore"`

	TurretKills    int `json:"turretKills"`
	InhibitorKills int `json:"inhibitorKills"`
	BaronKills     int `json:"baronKills"`
	DragonKills    int `json:"dragonKills"`
}

type Team struct {
	TeamID int  `json:"teamId"`
	Win    bool `json:"win"`
}

// Team side ids as the API reports them.
const (
	TeamBlue = 100
	TeamRed  = 200
)

// DisplayName prefers the Riot ID game name, falling back to the legacy
// summoner name for older match records.
func (p Participant) DisplayName() string {
	if p.RiotIDGameName != "" {
		return p.RiotIDGameName
	}
	return p.SummonerName
}

// Position returns the most specific role hint present on the record. The
// API fills absent slots with "Invalid" or "NONE" depending on the field.
func (p Participant) Position() string {
	for _, pos := range []string{p.IndividualPosition, p.TeamPosition, p.Role, p.Lane} {
		if pos != "" && pos != "Invalid" && pos != "NONE" {
			return pos
		}
	}
	return ""
}

// CS is lane plus jungle creep score.
func (p Participant) CS() int {
	return p.TotalMinionsKilled + p.NeutralMinionsKilled
}
