package helper

import (
	"encoding/json"
)

func JSONToByte(payload any) ([]byte, error) {
	return json.Marshal(payload)
}

func ByteToStruct[I any](payload []byte) (result *I, err error) {
	err = json.Unmarshal(payload, &result)
	if err != nil {
		return nil, err
	}
	return result, nil
}
